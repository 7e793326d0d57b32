package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/aabdoo23/Protomatic/internal/model"
	"github.com/aabdoo23/Protomatic/internal/pipeline"
)

var _ = Describe("LinkDependencies", func() {
	var store *pipeline.Store

	BeforeEach(func() {
		store = pipeline.NewStore()
	})

	create := func(id string, fn model.PipelineFunction) *model.Job {
		return store.Create(pipeline.CreateRequest{ID: id, FunctionName: fn})
	}

	It("links a predict job to the preceding generate job", func() {
		jobs := []*model.Job{
			create("g", model.FunctionGenerateProtein),
			create("p", model.FunctionPredictStructure),
		}

		pipeline.LinkDependencies(store, jobs)

		Expect(jobs[1].DependsOn).NotTo(BeNil())
		Expect(*jobs[1].DependsOn).To(Equal("g"))

		stored, _ := store.Get("p")
		Expect(*stored.DependsOn).To(Equal("g"))
	})

	It("picks the nearest preceding job of the required kind", func() {
		jobs := []*model.Job{
			create("g", model.FunctionGenerateProtein),
			create("p1", model.FunctionPredictStructure),
			create("p2", model.FunctionPredictStructure),
			create("s", model.FunctionSearchStructure),
		}

		pipeline.LinkDependencies(store, jobs)

		Expect(*jobs[1].DependsOn).To(Equal("g"))
		Expect(*jobs[2].DependsOn).To(Equal("g"))
		Expect(*jobs[3].DependsOn).To(Equal("p2"))
	})

	It("leaves roots and unmatched jobs unlinked", func() {
		jobs := []*model.Job{
			create("s", model.FunctionSearchStructure),
			create("g", model.FunctionGenerateProtein),
		}

		pipeline.LinkDependencies(store, jobs)

		Expect(jobs[0].DependsOn).To(BeNil())
		Expect(jobs[1].DependsOn).To(BeNil())
	})

	It("never links forward in the batch", func() {
		jobs := []*model.Job{
			create("p", model.FunctionPredictStructure),
			create("g", model.FunctionGenerateProtein),
		}

		pipeline.LinkDependencies(store, jobs)

		Expect(jobs[0].DependsOn).To(BeNil())
	})

	It("links a phylogeny job to the preceding similarity search", func() {
		jobs := []*model.Job{
			create("g", model.FunctionGenerateProtein),
			create("b", model.FunctionSearchSimilarity),
			create("t", model.FunctionBuildPhylogeneticTree),
		}

		pipeline.LinkDependencies(store, jobs)

		Expect(*jobs[1].DependsOn).To(Equal("g"))
		Expect(*jobs[2].DependsOn).To(Equal("b"))
	})
})

var _ = Describe("DependencyOf", func() {
	It("exposes the static table", func() {
		dep, ok := pipeline.DependencyOf(model.FunctionPredictStructure)
		Expect(ok).To(BeTrue())
		Expect(dep).To(Equal(model.FunctionGenerateProtein))

		_, ok = pipeline.DependencyOf(model.FunctionGenerateProtein)
		Expect(ok).To(BeFalse())
	})
})
