package archive_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/aabdoo23/Protomatic/internal/archive"
	"github.com/aabdoo23/Protomatic/internal/model"
)

var _ = Describe("Archive", func() {
	// Record checks the status before touching the pool, so the guard is
	// testable without a database.
	It("refuses to archive a job that is still in flight", func() {
		a := archive.New(nil, nil)

		for _, status := range []model.JobStatus{model.JobStatusPending, model.JobStatusRunning} {
			job := &model.Job{
				ID:           "job-1",
				FunctionName: model.FunctionGenerateProtein,
				Status:       status,
			}

			err := a.Record(context.Background(), job)
			Expect(err).To(MatchError(ContainSubstring("not terminal")))
		}
	})
})
