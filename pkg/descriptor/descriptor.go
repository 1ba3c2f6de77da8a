// Package descriptor defines the self-describing manifest every sub-agent
// package exports so the registry can discover and invoke agents
// generically, without the orchestration layer hardcoding any agent-specific
// logic (spec.md §4.5, grounded in original_source/agents/descriptor.py's
// SubAgentDescriptor/BaseMaterializer/MediaAsset protocol).
package descriptor

import "context"

// Agent is the minimal surface the assistant drives: build typed input,
// run it against upstream context, and return a result map. Concrete agents
// embed additional LLM call logic; this interface is what the runtime needs.
type Agent interface {
	Run(ctx context.Context, input any, upstream map[string]any, mctx *MaterializeContext) (map[string]any, error)
}

// Evaluator implements the three-layer quality gate (spec.md §4.6 "Evaluator
// contract").
type Evaluator interface {
	CheckStructure(output map[string]any, upstream map[string]any) []string
	EvaluateCreative(ctx context.Context, output map[string]any, upstream map[string]any) (CreativeResult, error)
	EvaluateAsset(ctx context.Context, assetData map[string]any, upstream map[string]any) (AssetResult, error)
}

// CreativeResult is the output of Evaluator.EvaluateCreative.
type CreativeResult struct {
	Dimensions  map[string]float64
	OverallPass bool
	Summary     string
}

// AssetResult is the output of Evaluator.EvaluateAsset.
type AssetResult struct {
	Dimensions  map[string]float64
	OverallPass bool
	Summary     string
}

// MediaAsset is one binary asset produced by a Materializer, to be persisted
// by the caller — never by the materializer itself.
type MediaAsset struct {
	SysID     string
	Data      []byte
	Extension string
	// URIHolder is the nested map in the agent's output dict where the
	// caller writes the persisted path back under "uri" and SysID under
	// "asset_id" after saving.
	URIHolder map[string]any
}

// Materializer is a pure generator of binary assets: it calls external media
// services and returns MediaAssets. It performs no file I/O — persistence is
// MaterializeContext's job.
type Materializer interface {
	Materialize(ctx context.Context, projectID string, assetDict map[string]any, assets map[string]any) ([]MediaAsset, error)
}

// MaterializeContext is handed to an Agent's Run when its descriptor
// declares a materializer. PersistBinary writes to a scratch directory and
// returns the path.
type MaterializeContext struct {
	PersistBinary func(asset MediaAsset) (string, error)
}

// ServiceFactory builds a shared service instance from the materialization
// context (at minimum {"llm_client": ...}). Services sharing a key across
// descriptors are built once — first descriptor to declare a key wins
// (spec.md §4.5).
type ServiceFactory func(ctx map[string]any) any

// AgentDescriptor is the pluggable manifest for one sub-agent package.
type AgentDescriptor struct {
	AgentName    string
	AssetKey     string
	AssetType    string
	UpstreamKeys []string
	CatalogEntry string

	AgentFactory     func(llm any) Agent
	EvaluatorFactory func() Evaluator

	BuildInput    func(projectID, draftID string, assets map[string]any, config map[string]any) any
	BuildUpstream func(assets map[string]any) map[string]any

	ServiceFactories     map[string]ServiceFactory
	MaterializerFactory  func(services map[string]any) Materializer
	UserTextKey          string
}

// Normalize fills BuildUpstream from UpstreamKeys when the descriptor did
// not supply a custom one — equivalent to the original's __post_init__
// auto-generation.
func (d *AgentDescriptor) Normalize() {
	if d.BuildUpstream != nil {
		return
	}
	keys := append([]string(nil), d.UpstreamKeys...)
	d.BuildUpstream = func(assets map[string]any) map[string]any {
		out := make(map[string]any, len(keys))
		for _, k := range keys {
			if v, ok := assets[k]; ok {
				out[k] = v
			} else {
				out[k] = map[string]any{}
			}
		}
		return out
	}
}

// EquippedAgent is an Agent instance wired with its evaluator and (if
// declared) its materializer.
type EquippedAgent struct {
	Agent        Agent
	Evaluator    Evaluator
	Materializer Materializer
}

// BuildEquippedAgent constructs a ready-to-run agent: its evaluator and, if
// the descriptor declares one, its materializer — fed by shared service
// instances built from ServiceFactories, with overrides taking precedence
// (spec.md §4.5's build_equipped_agent).
func (d *AgentDescriptor) BuildEquippedAgent(llm any, servicesOverride map[string]any) *EquippedAgent {
	eq := &EquippedAgent{
		Agent:     d.AgentFactory(llm),
		Evaluator: d.EvaluatorFactory(),
	}
	if d.MaterializerFactory == nil {
		return eq
	}
	svcCtx := map[string]any{"llm_client": llm}
	services := make(map[string]any, len(d.ServiceFactories))
	for key, factory := range d.ServiceFactories {
		if servicesOverride != nil {
			if v, ok := servicesOverride[key]; ok {
				services[key] = v
				continue
			}
		}
		services[key] = factory(svcCtx)
	}
	eq.Materializer = d.MaterializerFactory(services)
	return eq
}
