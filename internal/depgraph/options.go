package depgraph

// Defaults used when an Options field is left zero.
const (
	DefaultHubPercentile  = 0.90
	DefaultTopN           = 10
	DefaultSampleSize     = 5
	DefaultMetaNodePrefix = "[root]"
)

// Options tunes an analysis run. The zero value selects the defaults.
type Options struct {
	// HubPercentile is the fraction of the sorted in-degree list used as
	// the hub threshold index.
	HubPercentile float64
	// TopN bounds the hub list and the top-depended ranking.
	TopN int
	// SampleSize bounds the sample names reported per category.
	SampleSize int
	// MetaNodePrefix marks orchestrator-internal nodes to drop while parsing.
	MetaNodePrefix string
}

// DefaultOptions returns the standard analysis options.
func DefaultOptions() Options {
	return Options{
		HubPercentile:  DefaultHubPercentile,
		TopN:           DefaultTopN,
		SampleSize:     DefaultSampleSize,
		MetaNodePrefix: DefaultMetaNodePrefix,
	}
}

// withDefaults fills zero fields from DefaultOptions.
func (o Options) withDefaults() Options {
	if o.HubPercentile <= 0 || o.HubPercentile > 1 {
		o.HubPercentile = DefaultHubPercentile
	}
	if o.TopN <= 0 {
		o.TopN = DefaultTopN
	}
	if o.SampleSize <= 0 {
		o.SampleSize = DefaultSampleSize
	}
	if o.MetaNodePrefix == "" {
		o.MetaNodePrefix = DefaultMetaNodePrefix
	}
	return o
}
