package pipeline

import "github.com/aabdoo23/Protomatic/internal/model"

// dependencyTable maps a function to the function kind its jobs depend on.
// Functions without an entry are roots.
var dependencyTable = map[model.PipelineFunction]model.PipelineFunction{
	model.FunctionPredictStructure:      model.FunctionGenerateProtein,
	model.FunctionSearchStructure:       model.FunctionPredictStructure,
	model.FunctionEvaluateStructure:     model.FunctionPredictStructure,
	model.FunctionSearchSimilarity:      model.FunctionGenerateProtein,
	model.FunctionPredictBindingSites:   model.FunctionPredictStructure,
	model.FunctionBuildPhylogeneticTree: model.FunctionSearchSimilarity,
	model.FunctionAnalyzeRamachandran:   model.FunctionPredictStructure,
}

// LinkDependencies assigns each job's depends_on from a planned batch,
// processed in planned order. For a job whose function has a table entry,
// the link goes to the nearest preceding job of the required kind within
// the batch. No match leaves the job a root: best effort, not an error.
//
// A plan is a flat ordered list, so this reconstructs linear pipeline
// shapes only; fan-in (a job needing two predecessors) cannot be expressed
// with a single depends_on link.
func LinkDependencies(store *Store, jobs []*model.Job) {
	for i, job := range jobs {
		required, ok := dependencyTable[job.FunctionName]
		if !ok {
			continue
		}
		for j := i - 1; j >= 0; j-- {
			if jobs[j].FunctionName == required {
				dep := jobs[j].ID
				job.DependsOn = &dep
				store.SetDependency(job.ID, dep)
				break
			}
		}
	}
}

// DependencyOf exposes the static table entry for a function, if any.
func DependencyOf(fn model.PipelineFunction) (model.PipelineFunction, bool) {
	dep, ok := dependencyTable[fn]
	return dep, ok
}
