package model_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/aabdoo23/Protomatic/internal/model"
)

var _ = Describe("CanonicalFunction", func() {
	It("maps sandbox block types onto their backend function", func() {
		fn, aliased := model.CanonicalFunction("esmfold_predict")
		Expect(fn).To(Equal(model.FunctionPredictStructure))
		Expect(aliased).To(BeTrue())

		fn, aliased = model.CanonicalFunction("local_blast_search")
		Expect(fn).To(Equal(model.FunctionSearchSimilarity))
		Expect(aliased).To(BeTrue())

		fn, aliased = model.CanonicalFunction("blast_db_builder")
		Expect(fn).To(Equal(model.FunctionBuildDatabase))
		Expect(aliased).To(BeTrue())
	})

	It("passes canonical names through unaliased", func() {
		fn, aliased := model.CanonicalFunction("generate_protein")
		Expect(fn).To(Equal(model.FunctionGenerateProtein))
		Expect(aliased).To(BeFalse())

		fn, aliased = model.CanonicalFunction("perform_docking")
		Expect(fn).To(Equal(model.FunctionPerformDocking))
		Expect(aliased).To(BeFalse())
	})

	It("leaves unknown names invalid", func() {
		fn, _ := model.CanonicalFunction("fold_everything")
		Expect(fn.Valid()).To(BeFalse())
	})
})

var _ = Describe("PipelineFunction", func() {
	It("keeps sandbox-only functions out of the planner set", func() {
		Expect(model.FunctionBuildDatabase.Plannable()).To(BeFalse())
		Expect(model.FunctionFileUpload.Plannable()).To(BeFalse())
		Expect(model.FunctionGenerateProtein.Plannable()).To(BeTrue())
	})
})

var _ = Describe("Job snapshots", func() {
	It("deep-copies nested parameters and results", func() {
		job := &model.Job{
			ID:         "j1",
			Parameters: map[string]any{"database": map[string]any{"path": "/db"}},
			Result:     map[string]any{"hits": []any{"a"}},
		}

		snap := job.Snapshot()
		snap.Parameters["database"].(map[string]any)["path"] = "/mutated"
		snap.Result["hits"].([]any)[0] = "mutated"

		Expect(job.Parameters["database"].(map[string]any)["path"]).To(Equal("/db"))
		Expect(job.Result["hits"].([]any)[0]).To(Equal("a"))
	})
})
