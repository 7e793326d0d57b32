package model

// PipelineFunction identifies one of the closed set of capabilities a job
// can invoke. Dispatch is a closed-set switch, never reflection.
type PipelineFunction string

const (
	FunctionGenerateProtein       PipelineFunction = "generate_protein"
	FunctionPredictStructure      PipelineFunction = "predict_structure"
	FunctionSearchStructure       PipelineFunction = "search_structure"
	FunctionEvaluateStructure     PipelineFunction = "evaluate_structure"
	FunctionSearchSimilarity      PipelineFunction = "search_similarity"
	FunctionPredictBindingSites   PipelineFunction = "predict_binding_sites"
	FunctionPerformDocking        PipelineFunction = "perform_docking"
	FunctionBuildPhylogeneticTree PipelineFunction = "build_phylogenetic_tree"
	FunctionAnalyzeRamachandran   PipelineFunction = "analyze_ramachandran"
	FunctionBuildDatabase         PipelineFunction = "build_database"
	FunctionFileUpload            PipelineFunction = "file_upload"
)

// PlannerFunctions is the subset the planner may emit. build_database and
// file_upload only enter through the sandbox confirmation path.
var PlannerFunctions = []PipelineFunction{
	FunctionGenerateProtein,
	FunctionPredictStructure,
	FunctionSearchStructure,
	FunctionEvaluateStructure,
	FunctionSearchSimilarity,
	FunctionPredictBindingSites,
	FunctionPerformDocking,
	FunctionBuildPhylogeneticTree,
	FunctionAnalyzeRamachandran,
}

// Plannable reports whether the planner is allowed to emit f.
func (f PipelineFunction) Plannable() bool {
	for _, fn := range PlannerFunctions {
		if fn == f {
			return true
		}
	}
	return false
}

func (f PipelineFunction) Valid() bool {
	switch f {
	case FunctionGenerateProtein, FunctionPredictStructure, FunctionSearchStructure,
		FunctionEvaluateStructure, FunctionSearchSimilarity, FunctionPredictBindingSites,
		FunctionPerformDocking, FunctionBuildPhylogeneticTree, FunctionAnalyzeRamachandran,
		FunctionBuildDatabase, FunctionFileUpload:
		return true
	}
	return false
}

func (f PipelineFunction) Description() string {
	switch f {
	case FunctionGenerateProtein:
		return "Generate a protein sequence"
	case FunctionPredictStructure:
		return "Predict protein structure"
	case FunctionSearchStructure:
		return "Search for similar structures"
	case FunctionEvaluateStructure:
		return "Compare two protein structures"
	case FunctionSearchSimilarity:
		return "Search for similar sequences"
	case FunctionPredictBindingSites:
		return "Predict protein binding sites"
	case FunctionPerformDocking:
		return "Perform molecular docking"
	case FunctionBuildPhylogeneticTree:
		return "Build phylogenetic tree from MSA"
	case FunctionAnalyzeRamachandran:
		return "Generate Ramachandran plot analysis"
	case FunctionBuildDatabase:
		return "Build a BLAST sequence database"
	case FunctionFileUpload:
		return "Register an uploaded file"
	default:
		return "Unknown function"
	}
}

// sandboxAliases maps the specialized sandbox block types to their backend
// function. The alias itself is preserved as the model_type parameter so
// the executor can pick the right tool variant.
var sandboxAliases = map[string]PipelineFunction{
	"generate_protein":   FunctionGenerateProtein,
	"openfold_predict":   FunctionPredictStructure,
	"alphafold2_predict": FunctionPredictStructure,
	"esmfold_predict":    FunctionPredictStructure,
	"colabfold_search":   FunctionSearchSimilarity,
	"ncbi_blast_search":  FunctionSearchSimilarity,
	"local_blast_search": FunctionSearchSimilarity,
	"blast_db_builder":   FunctionBuildDatabase,
}

// CanonicalFunction resolves a sandbox block type (or an already-canonical
// name) to the backend function. The second return reports whether the name
// was a specialized alias that should be recorded as model_type.
func CanonicalFunction(name string) (PipelineFunction, bool) {
	if fn, ok := sandboxAliases[name]; ok {
		return fn, string(fn) != name
	}
	return PipelineFunction(name), false
}
