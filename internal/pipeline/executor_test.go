package pipeline_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/aabdoo23/Protomatic/internal/capability"
	"github.com/aabdoo23/Protomatic/internal/model"
	"github.com/aabdoo23/Protomatic/internal/pipeline"
)

// recordingCapability captures the request it was invoked with and returns
// a canned payload.
type recordingCapability struct {
	request map[string]any
	payload capability.Result
	err     error
}

func (r *recordingCapability) Invoke(_ context.Context, params map[string]any) (capability.Result, error) {
	r.request = params
	if r.err != nil {
		return nil, r.err
	}
	return r.payload, nil
}

var _ = Describe("Executor", func() {
	var (
		ctx      context.Context
		store    *pipeline.Store
		caps     *capability.Registry
		executor *pipeline.Executor
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = pipeline.NewStore()
		caps = &capability.Registry{
			Predictors:     map[string]capability.Capability{},
			SequenceSearch: map[string]capability.Capability{},
		}
		executor = pipeline.NewExecutor(store, caps)
	})

	job := func(fn model.PipelineFunction, params map[string]any) *model.Job {
		return store.Create(pipeline.CreateRequest{FunctionName: fn, Parameters: params})
	}

	Describe("generate_protein", func() {
		It("invokes the generator with the prompt", func() {
			gen := &recordingCapability{payload: capability.Result{"sequence": "MKVL", "info": "ok"}}
			caps.Generator = gen

			result, err := executor.Execute(ctx, job(model.FunctionGenerateProtein, map[string]any{
				"prompt": "thermostable enzyme",
			}))

			Expect(err).NotTo(HaveOccurred())
			Expect(gen.request).To(HaveKeyWithValue("prompt", "thermostable enzyme"))
			Expect(result).To(HaveKeyWithValue("sequence", "MKVL"))
		})

		It("propagates tool failures verbatim", func() {
			caps.Generator = &recordingCapability{err: errors.New("model service unavailable")}

			_, err := executor.Execute(ctx, job(model.FunctionGenerateProtein, map[string]any{"prompt": "x"}))

			Expect(err).To(MatchError("model service unavailable"))
		})
	})

	Describe("predict_structure", func() {
		It("requires a sequence", func() {
			_, err := executor.Execute(ctx, job(model.FunctionPredictStructure, map[string]any{}))
			Expect(err).To(MatchError("No sequence provided for structure prediction"))
		})

		It("defaults to the openfold predictor", func() {
			pred := &recordingCapability{payload: capability.Result{"pdb_file": "/p.pdb", "metrics": map[string]any{}}}
			caps.Predictors["openfold_predict"] = pred

			result, err := executor.Execute(ctx, job(model.FunctionPredictStructure, map[string]any{
				"sequence": "MKVL",
			}))

			Expect(err).NotTo(HaveOccurred())
			Expect(pred.request).To(HaveKeyWithValue("sequence", "MKVL"))
			Expect(result).To(HaveKeyWithValue("pdb_file", "/p.pdb"))
			Expect(result).To(HaveKey("metrics"))
		})

		It("maps the planner model names onto predictor variants", func() {
			pred := &recordingCapability{payload: capability.Result{"pdb_file": "/p.pdb"}}
			caps.Predictors["esmfold_predict"] = pred

			_, err := executor.Execute(ctx, job(model.FunctionPredictStructure, map[string]any{
				"sequence": "MKVL",
				"model":    "esm",
			}))

			Expect(err).NotTo(HaveOccurred())
			Expect(pred.request).NotTo(BeNil())
		})

		It("honors the sandbox model_type over the model parameter", func() {
			pred := &recordingCapability{payload: capability.Result{"pdb_file": "/p.pdb"}}
			caps.Predictors["alphafold2_predict"] = pred

			_, err := executor.Execute(ctx, job(model.FunctionPredictStructure, map[string]any{
				"sequence":   "MKVL",
				"model":      "esm",
				"model_type": "alphafold2_predict",
			}))

			Expect(err).NotTo(HaveOccurred())
			Expect(pred.request).NotTo(BeNil())
		})

		It("rejects unknown models", func() {
			_, err := executor.Execute(ctx, job(model.FunctionPredictStructure, map[string]any{
				"sequence": "MKVL",
				"model":    "rosetta",
			}))
			Expect(err).To(MatchError("Unknown model: rosetta"))
		})

		It("fails when the selected predictor is not configured", func() {
			_, err := executor.Execute(ctx, job(model.FunctionPredictStructure, map[string]any{
				"sequence": "MKVL",
			}))
			Expect(errors.Is(err, capability.ErrNotConfigured)).To(BeTrue())
		})
	})

	Describe("search_structure", func() {
		It("requires a pdb file", func() {
			_, err := executor.Execute(ctx, job(model.FunctionSearchStructure, map[string]any{}))
			Expect(err).To(MatchError("No PDB file provided"))
		})

		It("echoes the searched pdb file back in the result", func() {
			caps.StructureSearch = &recordingCapability{payload: capability.Result{"results": []any{"hit"}}}

			result, err := executor.Execute(ctx, job(model.FunctionSearchStructure, map[string]any{
				"pdb_file": "/p.pdb",
			}))

			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(HaveKeyWithValue("pdb_file", "/p.pdb"))
			Expect(result).To(HaveKey("results"))
		})
	})

	Describe("evaluate_structure", func() {
		It("requires two pdb files", func() {
			_, err := executor.Execute(ctx, job(model.FunctionEvaluateStructure, map[string]any{
				"pdb_file1": "/a.pdb",
			}))
			Expect(err).To(MatchError("Two PDB files are required for structure comparison"))
		})

		It("derives interpretations and quality tiers from the metrics", func() {
			caps.Evaluator = &recordingCapability{payload: capability.Result{
				"tm_score":       0.95,
				"rmsd":           0.8,
				"seq_id":         0.99,
				"aligned_length": 120,
			}}

			result, err := executor.Execute(ctx, job(model.FunctionEvaluateStructure, map[string]any{
				"pdb_file1": "/a.pdb",
				"pdb_file2": "/b.pdb",
			}))

			Expect(err).NotTo(HaveOccurred())

			interpretations := result["interpretations"].(map[string]any)
			Expect(interpretations).To(HaveKeyWithValue("tm_score", "Identical structures"))
			Expect(interpretations).To(HaveKeyWithValue("rmsd", "Excellent alignment"))
			Expect(interpretations).To(HaveKeyWithValue("seq_id", "Identical sequences"))

			quality := result["quality_assessment"].(map[string]any)
			Expect(quality).To(HaveKeyWithValue("structural_similarity", "High"))
			Expect(quality).To(HaveKeyWithValue("geometric_accuracy", "High"))
			Expect(quality).To(HaveKeyWithValue("sequence_conservation", "High"))

			Expect(result["summary"]).To(ContainSubstring("identical structures"))
		})

		It("tiers dissimilar structures as low quality", func() {
			caps.Evaluator = &recordingCapability{payload: capability.Result{
				"tm_score": 0.2,
				"rmsd":     8.0,
				"seq_id":   0.05,
			}}

			result, err := executor.Execute(ctx, job(model.FunctionEvaluateStructure, map[string]any{
				"pdb_file1": "/a.pdb",
				"pdb_file2": "/b.pdb",
			}))

			Expect(err).NotTo(HaveOccurred())

			quality := result["quality_assessment"].(map[string]any)
			Expect(quality).To(HaveKeyWithValue("structural_similarity", "Low"))
			Expect(quality).To(HaveKeyWithValue("geometric_accuracy", "Low"))
			Expect(quality).To(HaveKeyWithValue("sequence_conservation", "Low"))
		})
	})

	Describe("search_similarity", func() {
		It("requires a sequence", func() {
			_, err := executor.Execute(ctx, job(model.FunctionSearchSimilarity, map[string]any{}))
			Expect(err).To(MatchError("No sequence provided"))
		})

		It("defaults to the NCBI variant", func() {
			search := &recordingCapability{payload: capability.Result{"results": []any{}}}
			caps.SequenceSearch["ncbi_blast_search"] = search

			_, err := executor.Execute(ctx, job(model.FunctionSearchSimilarity, map[string]any{
				"sequence": "MKVL",
			}))

			Expect(err).NotTo(HaveOccurred())
			Expect(search.request).To(HaveKeyWithValue("sequence", "MKVL"))
		})

		It("requires a database for a local search", func() {
			caps.SequenceSearch["local_blast_search"] = &recordingCapability{}

			_, err := executor.Execute(ctx, job(model.FunctionSearchSimilarity, map[string]any{
				"sequence":    "MKVL",
				"search_type": "local",
			}))

			Expect(err).To(MatchError("No database provided. Please connect a BLAST Database Builder block."))
		})

		It("unwraps a connected database block and applies the default e-value", func() {
			search := &recordingCapability{payload: capability.Result{"results": []any{}}}
			caps.SequenceSearch["local_blast_search"] = search

			_, err := executor.Execute(ctx, job(model.FunctionSearchSimilarity, map[string]any{
				"sequence":    "MKVL",
				"search_type": "local",
				"database": map[string]any{
					"database": map[string]any{"path": "/db/custom", "name": "custom"},
				},
			}))

			Expect(err).NotTo(HaveOccurred())
			Expect(search.request).To(HaveKeyWithValue("db_path", "/db/custom"))
			Expect(search.request).To(HaveKeyWithValue("e_value", 0.0001))
		})

		It("rejects unknown search types", func() {
			_, err := executor.Execute(ctx, job(model.FunctionSearchSimilarity, map[string]any{
				"sequence":    "MKVL",
				"search_type": "hmmer",
			}))
			Expect(err).To(MatchError("Unknown search type: hmmer"))
		})
	})

	Describe("predict_binding_sites", func() {
		It("requires a pdb file", func() {
			_, err := executor.Execute(ctx, job(model.FunctionPredictBindingSites, map[string]any{}))
			Expect(err).To(MatchError("No PDB file provided for binding site prediction"))
		})

		It("summarizes the number of sites found", func() {
			caps.BindingSites = &recordingCapability{payload: capability.Result{
				"binding_sites": []any{map[string]any{"rank": 1}},
				"top_site":      map[string]any{"rank": 1},
				"summary":       map[string]any{"total_sites": 3},
			}}

			result, err := executor.Execute(ctx, job(model.FunctionPredictBindingSites, map[string]any{
				"pdb_file": "/p.pdb",
			}))

			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(HaveKeyWithValue("message", "Found 3 binding sites"))
			Expect(result).To(HaveKey("top_site"))
		})
	})

	Describe("perform_docking", func() {
		It("requires protein, ligand, and a center", func() {
			_, err := executor.Execute(ctx, job(model.FunctionPerformDocking, map[string]any{
				"pdb_file": "/p.pdb",
			}))
			Expect(err).To(MatchError("Missing required docking parameters (protein_file, ligand_file, center coordinates)"))
		})

		It("applies the documented box and search defaults", func() {
			dock := &recordingCapability{payload: capability.Result{"poses": []any{}}}
			caps.Docking = dock

			_, err := executor.Execute(ctx, job(model.FunctionPerformDocking, map[string]any{
				"pdb_file":      "/p.pdb",
				"molecule_file": "/l.sdf",
				"center_x":      1.0,
				"center_y":      2.0,
				"center_z":      3.0,
			}))

			Expect(err).NotTo(HaveOccurred())
			Expect(dock.request).To(HaveKeyWithValue("size_x", 20.0))
			Expect(dock.request).To(HaveKeyWithValue("exhaustiveness", 16))
			Expect(dock.request).To(HaveKeyWithValue("num_modes", 10))
			Expect(dock.request).To(HaveKeyWithValue("cpu", 4))
		})

		It("takes the center from a chained top site when auto_center is set", func() {
			dock := &recordingCapability{payload: capability.Result{"poses": []any{}}}
			caps.Docking = dock

			_, err := executor.Execute(ctx, job(model.FunctionPerformDocking, map[string]any{
				"pdb_file":      "/p.pdb",
				"molecule_file": "/l.sdf",
				"auto_center":   true,
				"top_site": map[string]any{
					"center_x": 4.0,
					"center_y": 5.0,
					"center_z": 6.0,
				},
			}))

			Expect(err).NotTo(HaveOccurred())
			Expect(dock.request).To(HaveKeyWithValue("center_x", 4.0))
			Expect(dock.request).To(HaveKeyWithValue("center_z", 6.0))
		})

		It("falls back to on-the-fly binding site prediction for the center", func() {
			caps.BindingSites = &recordingCapability{payload: capability.Result{
				"top_site": map[string]any{"center_x": 7.0, "center_y": 8.0, "center_z": 9.0},
			}}
			dock := &recordingCapability{payload: capability.Result{"poses": []any{}}}
			caps.Docking = dock

			_, err := executor.Execute(ctx, job(model.FunctionPerformDocking, map[string]any{
				"pdb_file":      "/p.pdb",
				"molecule_file": "/l.sdf",
			}))

			Expect(err).NotTo(HaveOccurred())
			Expect(dock.request).To(HaveKeyWithValue("center_x", 7.0))
		})
	})

	Describe("build_phylogenetic_tree", func() {
		It("requires blast results", func() {
			_, err := executor.Execute(ctx, job(model.FunctionBuildPhylogeneticTree, map[string]any{}))
			Expect(err).To(MatchError("No BLAST results provided for phylogenetic tree construction"))
		})

		It("accepts chained blast_results and applies defaults", func() {
			phylo := &recordingCapability{payload: capability.Result{
				"tree":      map[string]any{},
				"alignment": map[string]any{"sequences_used": 12},
			}}
			caps.Phylogeny = phylo

			result, err := executor.Execute(ctx, job(model.FunctionBuildPhylogeneticTree, map[string]any{
				"blast_results": map[string]any{"hits": []any{}},
			}))

			Expect(err).NotTo(HaveOccurred())
			Expect(phylo.request).To(HaveKeyWithValue("method", "neighbor_joining"))
			Expect(phylo.request).To(HaveKeyWithValue("distance_model", "identity"))
			Expect(phylo.request).To(HaveKeyWithValue("max_sequences", 50))
			Expect(phylo.request).To(HaveKeyWithValue("remove_gaps", true))
			Expect(result["message"]).To(Equal("Built phylogenetic tree with 12 sequences using neighbor_joining method"))
		})

		It("falls back to raw results when blast_results is absent", func() {
			phylo := &recordingCapability{payload: capability.Result{"tree": map[string]any{}}}
			caps.Phylogeny = phylo

			_, err := executor.Execute(ctx, job(model.FunctionBuildPhylogeneticTree, map[string]any{
				"results": []any{"hit"},
			}))

			Expect(err).NotTo(HaveOccurred())
			Expect(phylo.request).To(HaveKey("blast_results"))
		})
	})

	Describe("analyze_ramachandran", func() {
		It("requires a pdb file", func() {
			_, err := executor.Execute(ctx, job(model.FunctionAnalyzeRamachandran, map[string]any{}))
			Expect(err).To(MatchError("No PDB file provided for Ramachandran analysis"))
		})
	})

	Describe("build_database", func() {
		It("requires sequences when built from a connected block", func() {
			caps.DatabaseBuilder = &recordingCapability{}

			_, err := executor.Execute(ctx, job(model.FunctionBuildDatabase, map[string]any{
				"input_method":   "connected",
				"sequences_data": map[string]any{"sequences_list": []any{}},
			}))

			Expect(err).To(MatchError("No sequences found in connected data"))
		})

		It("wraps the built database path for downstream blocks", func() {
			caps.DatabaseBuilder = &recordingCapability{payload: capability.Result{
				"db_path":    "/db/pfam",
				"db_name":    "pfam",
				"fasta_path": "/db/pfam.fasta",
			}}

			result, err := executor.Execute(ctx, job(model.FunctionBuildDatabase, map[string]any{
				"pfam_ids": []any{"PF00069"},
				"db_name":  "pfam",
			}))

			Expect(err).NotTo(HaveOccurred())
			database := result["database"].(map[string]any)
			Expect(database).To(HaveKeyWithValue("path", "/db/pfam"))
			Expect(result).To(HaveKeyWithValue("fasta_file", "/db/pfam.fasta"))
		})
	})

	Describe("parameter chaining", func() {
		It("feeds the completed predecessor's result into the job before dispatch", func() {
			gen := store.Create(pipeline.CreateRequest{ID: "g", FunctionName: model.FunctionGenerateProtein})
			store.UpdateStatus(ctx, "g", model.JobStatusCompleted, map[string]any{"sequence": "MKVL"}, "")

			pred := store.Create(pipeline.CreateRequest{ID: "p", FunctionName: model.FunctionPredictStructure})
			store.SetDependency("p", gen.ID)
			predJob, _ := store.Get(pred.ID)

			predictor := &recordingCapability{payload: capability.Result{"pdb_file": "/p.pdb"}}
			caps.Predictors["openfold_predict"] = predictor

			_, err := executor.Execute(ctx, predJob)

			Expect(err).NotTo(HaveOccurred())
			Expect(predictor.request).To(HaveKeyWithValue("sequence", "MKVL"))

			stored, _ := store.Get("p")
			Expect(stored.Parameters).To(HaveKeyWithValue("sequence", "MKVL"))
		})
	})
})
