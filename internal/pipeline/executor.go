package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aabdoo23/Protomatic/common/logger"
	"github.com/aabdoo23/Protomatic/internal/capability"
	"github.com/aabdoo23/Protomatic/internal/model"
)

// Executor runs a single job: it resolves chained parameters from the
// completed predecessor, dispatches on the closed function set, and
// normalizes the tool payload into the result shape the chain table
// expects. Expected failures (missing parameters, tool errors) come back
// as ordinary errors, never panics.
type Executor struct {
	store *Store
	caps  *capability.Registry
}

func NewExecutor(store *Store, caps *capability.Registry) *Executor {
	return &Executor{store: store, caps: caps}
}

// Execute resolves chaining and dispatches the job's function. The
// capability call runs without any store lock held.
func (e *Executor) Execute(ctx context.Context, job *model.Job) (map[string]any, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		JobID:     logger.Ptr(job.ID),
		Function:  logger.Ptr(string(job.FunctionName)),
		Component: "protomatic.pipeline.executor",
	})

	params := model.CopyMap(job.Parameters)

	if job.DependsOn != nil {
		if predecessor, ok := e.store.Get(*job.DependsOn); ok && predecessor.Result != nil {
			if updates := ChainParameters(predecessor); updates != nil {
				merged, ok := e.store.ApplyChainedParameters(job.ID, updates)
				if ok {
					params = merged
				}
				slog.DebugContext(ctx, "chained parameters from predecessor",
					"predecessor_id", predecessor.ID,
					"predecessor_function", predecessor.FunctionName,
					"chained_keys", len(updates))
			}
		}
	}

	switch job.FunctionName {
	case model.FunctionFileUpload:
		return e.fileUpload(params)
	case model.FunctionGenerateProtein:
		return e.generateProtein(ctx, params)
	case model.FunctionPredictStructure:
		return e.predictStructure(ctx, params)
	case model.FunctionSearchStructure:
		return e.searchStructure(ctx, params)
	case model.FunctionEvaluateStructure:
		return e.evaluateStructure(ctx, params)
	case model.FunctionSearchSimilarity:
		return e.searchSimilarity(ctx, params)
	case model.FunctionPredictBindingSites:
		return e.predictBindingSites(ctx, params)
	case model.FunctionPerformDocking:
		return e.performDocking(ctx, params)
	case model.FunctionBuildPhylogeneticTree:
		return e.buildPhylogeneticTree(ctx, params)
	case model.FunctionAnalyzeRamachandran:
		return e.analyzeRamachandran(ctx, params)
	case model.FunctionBuildDatabase:
		return e.buildDatabase(ctx, params)
	default:
		return nil, fmt.Errorf("unknown pipeline function: %s", job.FunctionName)
	}
}

func (e *Executor) fileUpload(params map[string]any) (map[string]any, error) {
	filePath := stringParam(params, "filePath")
	outputType := stringParam(params, "outputType")
	if filePath == "" || outputType == "" {
		return nil, errors.New("Missing file path or output type")
	}

	if _, err := os.Stat(filePath); err != nil {
		return nil, fmt.Errorf("File not found at path: %s", filePath)
	}

	switch outputType {
	case "structure", "molecule":
		return map[string]any{"filePath": filePath, "outputType": outputType}, nil
	case "sequence":
		sequences := listParam(params, "sequences")
		switch {
		case len(sequences) == 1:
			return map[string]any{
				"filePath":   filePath,
				"outputType": "sequence",
				"sequence":   sequences[0],
			}, nil
		case len(sequences) > 1:
			return map[string]any{
				"filePath":       filePath,
				"outputType":     "sequences_list",
				"sequences_list": sequences,
			}, nil
		default:
			return nil, errors.New("No sequences found in the uploaded FASTA file.")
		}
	default:
		return nil, fmt.Errorf("Invalid output type for file_upload: %s", outputType)
	}
}

func (e *Executor) generateProtein(ctx context.Context, params map[string]any) (map[string]any, error) {
	payload, err := e.caps.Generator.Invoke(ctx, map[string]any{
		"prompt": stringParam(params, "prompt"),
	})
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// predictorVariant normalizes the two parameter spellings into the sandbox
// block type keying the predictor map: the planner emits model=esm/
// alphafold2/openfold, the sandbox emits model_type=<block>_predict.
func predictorVariant(params map[string]any) (string, error) {
	if v := stringParam(params, "model_type"); v != "" {
		if _, ok := map[string]bool{"esmfold_predict": true, "alphafold2_predict": true, "openfold_predict": true}[v]; !ok {
			return "", fmt.Errorf("Unknown model: %s", v)
		}
		return v, nil
	}
	switch stringParam(params, "model") {
	case "esm":
		return "esmfold_predict", nil
	case "alphafold2":
		return "alphafold2_predict", nil
	case "openfold", "":
		return "openfold_predict", nil
	default:
		return "", fmt.Errorf("Unknown model: %s", stringParam(params, "model"))
	}
}

func (e *Executor) predictStructure(ctx context.Context, params map[string]any) (map[string]any, error) {
	sequence := stringParam(params, "sequence")
	if sequence == "" {
		return nil, errors.New("No sequence provided for structure prediction")
	}

	variant, err := predictorVariant(params)
	if err != nil {
		return nil, err
	}

	predictor, ok := e.caps.Predictors[variant]
	if !ok {
		return nil, fmt.Errorf("%s: %w", variant, capability.ErrNotConfigured)
	}

	request := model.CopyMap(params)
	request["sequence"] = sequence
	payload, err := predictor.Invoke(ctx, request)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"pdb_file": payload["pdb_file"],
		"metrics":  payload["metrics"],
	}, nil
}

func (e *Executor) searchStructure(ctx context.Context, params map[string]any) (map[string]any, error) {
	pdbFile := stringParam(params, "pdb_file")
	if pdbFile == "" {
		return nil, errors.New("No PDB file provided")
	}

	payload, err := e.caps.StructureSearch.Invoke(ctx, map[string]any{"pdb_file": pdbFile})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"results":  payload["results"],
		"pdb_file": pdbFile,
	}, nil
}

func (e *Executor) evaluateStructure(ctx context.Context, params map[string]any) (map[string]any, error) {
	pdbFile1 := stringParam(params, "pdb_file1")
	pdbFile2 := stringParam(params, "pdb_file2")
	if pdbFile1 == "" || pdbFile2 == "" {
		return nil, errors.New("Two PDB files are required for structure comparison")
	}

	payload, err := e.caps.Evaluator.Invoke(ctx, map[string]any{
		"pdb_file1": pdbFile1,
		"pdb_file2": pdbFile2,
	})
	if err != nil {
		return nil, err
	}

	tmScore := floatParamDefault(payload, "tm_score", 0)
	rmsd := floatParamDefault(payload, "rmsd", 0)
	seqID := floatParamDefault(payload, "seq_id", 0)

	return map[string]any{
		"metrics": map[string]any{
			"tm_score":       tmScore,
			"rmsd":           rmsd,
			"seq_id":         seqID,
			"aligned_length": payload["aligned_length"],
		},
		"interpretations": map[string]any{
			"tm_score": interpretTMScore(tmScore),
			"rmsd":     interpretRMSD(rmsd),
			"seq_id":   interpretSeqID(seqID),
		},
		"summary": fmt.Sprintf("Structural comparison complete: %s with %s (%.2fÅ RMSD, %.3f TM-score)",
			strings.ToLower(interpretTMScore(tmScore)), strings.ToLower(interpretRMSD(rmsd)), rmsd, tmScore),
		"quality_assessment": map[string]any{
			"structural_similarity": tier(tmScore, 0.7, 0.5),
			"geometric_accuracy":    tierInverse(rmsd, 2.0, 5.0),
			"sequence_conservation": tier(seqID, 0.7, 0.3),
		},
	}, nil
}

func (e *Executor) searchSimilarity(ctx context.Context, params map[string]any) (map[string]any, error) {
	sequence := stringParam(params, "sequence")
	if sequence == "" {
		return nil, errors.New("No sequence provided")
	}

	variant, err := searchVariant(params)
	if err != nil {
		return nil, err
	}

	request := map[string]any{"sequence": sequence}
	if variant == "local_blast_search" {
		database := mapParam(params, "database")
		// Connected database blocks arrive wrapped one level deep.
		if inner := mapParam(database, "database"); inner != nil {
			database = inner
		}
		if database == nil || stringParam(database, "path") == "" {
			return nil, errors.New("No database provided. Please connect a BLAST Database Builder block.")
		}
		request["db_path"] = database["path"]
		request["e_value"] = floatParamDefault(params, "e_value", 0.0001)
		if ids := listParam(params, "interpro_ids"); ids != nil {
			request["interpro_ids"] = ids
		}
	}

	searcher, ok := e.caps.SequenceSearch[variant]
	if !ok {
		return nil, fmt.Errorf("%s: %w", variant, capability.ErrNotConfigured)
	}

	payload, err := searcher.Invoke(ctx, request)
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func searchVariant(params map[string]any) (string, error) {
	if v := stringParam(params, "model_type"); v != "" {
		if _, ok := map[string]bool{"ncbi_blast_search": true, "colabfold_search": true, "local_blast_search": true}[v]; !ok {
			return "", fmt.Errorf("Unknown search type: %s", v)
		}
		return v, nil
	}
	switch stringParam(params, "search_type") {
	case "ncbi", "":
		return "ncbi_blast_search", nil
	case "colabfold":
		return "colabfold_search", nil
	case "local":
		return "local_blast_search", nil
	default:
		return "", fmt.Errorf("Unknown search type: %s", stringParam(params, "search_type"))
	}
}

func (e *Executor) predictBindingSites(ctx context.Context, params map[string]any) (map[string]any, error) {
	pdbFile := stringParam(params, "pdb_file")
	if pdbFile == "" {
		return nil, errors.New("No PDB file provided for binding site prediction")
	}

	request := map[string]any{"pdb_file": pdbFile}
	if outputDir := stringParam(params, "output_dir"); outputDir != "" {
		request["output_dir"] = outputDir
	}

	payload, err := e.caps.BindingSites.Invoke(ctx, request)
	if err != nil {
		return nil, err
	}

	totalSites := intParamDefault(mapParam(payload, "summary"), "total_sites", 0)
	return map[string]any{
		"pdb_filename":    payload["pdb_filename"],
		"result_path":     payload["result_path"],
		"predictions_csv": payload["predictions_csv"],
		"binding_sites":   payload["binding_sites"],
		"summary":         payload["summary"],
		"top_site":        payload["top_site"],
		"message":         fmt.Sprintf("Found %d binding sites", totalSites),
	}, nil
}

func (e *Executor) performDocking(ctx context.Context, params map[string]any) (map[string]any, error) {
	proteinFile := stringParam(params, "pdb_file")
	ligandFile := stringParam(params, "molecule_file")

	centerX, haveX := floatParam(params, "center_x")
	centerY, haveY := floatParam(params, "center_y")
	centerZ, haveZ := floatParam(params, "center_z")
	haveCenter := haveX && haveY && haveZ

	// Binding site coordinates chained from an earlier P2Rank run take over
	// when auto_center is requested and no explicit center was given.
	topSite := mapParam(params, "top_site")
	if boolParam(params, "auto_center") && topSite != nil && !haveCenter {
		centerX, haveX = floatParam(topSite, "center_x")
		centerY, haveY = floatParam(topSite, "center_y")
		centerZ, haveZ = floatParam(topSite, "center_z")
		haveCenter = haveX && haveY && haveZ
	}

	// Last resort: run binding site prediction on the fly.
	if !haveCenter && proteinFile != "" {
		prediction, err := e.caps.BindingSites.Invoke(ctx, map[string]any{"pdb_file": proteinFile})
		if err == nil {
			if site := mapParam(prediction, "top_site"); site != nil {
				centerX, haveX = floatParam(site, "center_x")
				centerY, haveY = floatParam(site, "center_y")
				centerZ, haveZ = floatParam(site, "center_z")
				haveCenter = haveX && haveY && haveZ
			}
		} else {
			slog.WarnContext(ctx, "on-the-fly binding site prediction failed", "error", err)
		}
	}

	if proteinFile == "" || ligandFile == "" || !haveCenter {
		return nil, errors.New("Missing required docking parameters (protein_file, ligand_file, center coordinates)")
	}

	payload, err := e.caps.Docking.Invoke(ctx, map[string]any{
		"protein_file":   proteinFile,
		"ligand_file":    ligandFile,
		"center_x":       centerX,
		"center_y":       centerY,
		"center_z":       centerZ,
		"size_x":         floatParamDefault(params, "size_x", 20),
		"size_y":         floatParamDefault(params, "size_y", 20),
		"size_z":         floatParamDefault(params, "size_z", 20),
		"exhaustiveness": intParamDefault(params, "exhaustiveness", 16),
		"num_modes":      intParamDefault(params, "num_modes", 10),
		"cpu":            intParamDefault(params, "cpu", 4),
	})
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func (e *Executor) buildPhylogeneticTree(ctx context.Context, params map[string]any) (map[string]any, error) {
	blastResults := params["blast_results"]
	if blastResults == nil {
		blastResults = params["results"]
	}
	if blastResults == nil {
		return nil, errors.New("No BLAST results provided for phylogenetic tree construction")
	}

	method := stringParam(params, "tree_method")
	if method == "" {
		method = "neighbor_joining"
	}
	distanceModel := stringParam(params, "distance_model")
	if distanceModel == "" {
		distanceModel = "identity"
	}

	removeGaps := true
	if v, ok := params["remove_gaps"].(bool); ok {
		removeGaps = v
	}

	payload, err := e.caps.Phylogeny.Invoke(ctx, map[string]any{
		"blast_results":       blastResults,
		"method":              method,
		"distance_model":      distanceModel,
		"max_sequences":       intParamDefault(params, "max_sequences", 50),
		"min_sequence_length": intParamDefault(params, "min_sequence_length", 50),
		"remove_gaps":         removeGaps,
	})
	if err != nil {
		return nil, err
	}

	sequencesUsed := intParamDefault(mapParam(payload, "alignment"), "sequences_used", 0)
	return map[string]any{
		"tree_data":      payload["tree"],
		"alignment_data": payload["alignment"],
		"metadata":       payload["metadata"],
		"message":        fmt.Sprintf("Built phylogenetic tree with %d sequences using %s method", sequencesUsed, method),
	}, nil
}

func (e *Executor) analyzeRamachandran(ctx context.Context, params map[string]any) (map[string]any, error) {
	pdbFile := stringParam(params, "pdb_file")
	if pdbFile == "" {
		return nil, errors.New("No PDB file provided for Ramachandran analysis")
	}

	outputDir := stringParam(params, "output_dir")
	if outputDir == "" {
		outputDir = filepath.Join("static", "ramachandran_results")
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating output directory: %w", err)
		}
	}

	payload, err := e.caps.Ramachandran.Invoke(ctx, map[string]any{
		"pdb_file":   pdbFile,
		"output_dir": outputDir,
	})
	if err != nil {
		return nil, err
	}

	residueCount := intParamDefault(payload, "residue_count", 0)
	return map[string]any{
		"pdb_file":      payload["pdb_file"],
		"plot_base64":   payload["plot_base64"],
		"plot_path":     payload["plot_path"],
		"data_path":     payload["data_path"],
		"statistics":    payload["statistics"],
		"residue_count": payload["residue_count"],
		"angle_data":    payload["angle_data"],
		"timestamp":     payload["timestamp"],
		"message":       fmt.Sprintf("Generated Ramachandran plot for %d residues", residueCount),
	}, nil
}

func (e *Executor) buildDatabase(ctx context.Context, params map[string]any) (map[string]any, error) {
	request := map[string]any{}

	inputMethod := stringParam(params, "input_method")
	if inputMethod == "" {
		inputMethod = "pfam"
	}

	if inputMethod == "connected" {
		sequencesData := mapParam(params, "sequences_data")
		if sequencesData == nil {
			return nil, errors.New("Invalid connected sequences data format")
		}
		sequences := listParam(sequencesData, "sequences_list")
		if len(sequences) == 0 {
			return nil, errors.New("No sequences found in connected data")
		}
		request["sequences_list"] = sequences
		request["db_name"] = params["db_name"]
	} else {
		request["fasta_file"] = params["fasta_file"]
		request["pfam_ids"] = params["pfam_ids"]
		request["db_name"] = params["db_name"]
		request["sequence_types"] = params["sequence_types"]
	}

	payload, err := e.caps.DatabaseBuilder.Invoke(ctx, request)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"database": map[string]any{
			"path": payload["db_path"],
			"name": payload["db_name"],
		},
		"fasta_file": payload["fasta_path"],
	}, nil
}

// Interpretation tiers for structural comparison, surfaced alongside the
// raw metrics so downstream consumers don't re-derive them.

func interpretTMScore(score float64) string {
	switch {
	case score >= 0.9:
		return "Identical structures"
	case score >= 0.7:
		return "Very similar structures"
	case score >= 0.5:
		return "Similar fold"
	case score >= 0.3:
		return "Different folds"
	default:
		return "Completely different structures"
	}
}

func interpretRMSD(rmsd float64) string {
	switch {
	case rmsd <= 1.0:
		return "Excellent alignment"
	case rmsd <= 2.0:
		return "Very good alignment"
	case rmsd <= 3.0:
		return "Good alignment"
	case rmsd <= 5.0:
		return "Moderate alignment"
	default:
		return "Poor alignment"
	}
}

func interpretSeqID(seqID float64) string {
	switch {
	case seqID >= 0.95:
		return "Identical sequences"
	case seqID >= 0.7:
		return "Highly similar sequences"
	case seqID >= 0.3:
		return "Moderately similar sequences"
	case seqID >= 0.1:
		return "Distantly related sequences"
	default:
		return "Very different sequences"
	}
}

func tier(value, high, medium float64) string {
	switch {
	case value >= high:
		return "High"
	case value >= medium:
		return "Medium"
	default:
		return "Low"
	}
}

func tierInverse(value, high, medium float64) string {
	switch {
	case value <= high:
		return "High"
	case value <= medium:
		return "Medium"
	default:
		return "Low"
	}
}
