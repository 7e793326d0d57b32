package pipeline

import "github.com/aabdoo23/Protomatic/internal/model"

// chainTable maps a predecessor's function to the result fields that feed
// the dependent job's parameters: result field name -> destination
// parameter name. Result fields without an entry are dropped; table fields
// absent from the result are skipped.
var chainTable = map[model.PipelineFunction]map[string]string{
	model.FunctionGenerateProtein: {
		"sequence": "sequence",
	},
	model.FunctionPredictStructure: {
		"pdb_file": "pdb_file",
		"sequence": "sequence",
	},
	model.FunctionEvaluateStructure: {
		"metrics":            "comparison_metrics",
		"interpretations":    "comparison_interpretations",
		"summary":            "comparison_summary",
		"quality_assessment": "quality_assessment",
	},
	model.FunctionPredictBindingSites: {
		"binding_sites":   "binding_sites",
		"top_site":        "top_site",
		"predictions_csv": "predictions_csv",
	},
	model.FunctionSearchSimilarity: {
		"results": "blast_results",
	},
	model.FunctionAnalyzeRamachandran: {
		"plot_base64": "plot_base64",
		"plot_path":   "plot_path",
		"statistics":  "statistics",
		"angle_data":  "angle_data",
	},
}

// ChainParameters computes the parameter updates a completed predecessor
// contributes to its dependent. Values are deep-copied so the dependent can
// never mutate the predecessor's stored result. Returns nil when the
// predecessor's function has no chain mapping.
func ChainParameters(predecessor *model.Job) map[string]any {
	mapping, ok := chainTable[predecessor.FunctionName]
	if !ok || predecessor.Result == nil {
		return nil
	}

	updates := make(map[string]any)
	for resultField, paramName := range mapping {
		if value, present := predecessor.Result[resultField]; present {
			updates[paramName] = model.CopyValue(value)
		}
	}
	if len(updates) == 0 {
		return nil
	}
	return updates
}
