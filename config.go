package cast

// GuardConfig tunes the Binary Guard (§4.B). Thresholds are exposed as
// tunables — per §9's Open Questions, they are not formally proven
// optimal and may be adjusted without changing the container format.
type GuardConfig struct {
	// SampleSize is how many leading bytes of the input the Guard
	// inspects. Default: 8 KiB.
	SampleSize int

	// MaxNonPrintableFraction is the fraction of sampled bytes allowed
	// outside the printable/whitespace set before OPAQUE is returned.
	// Default: 0.15.
	MaxNonPrintableFraction float64

	// MaxNULBytes is the maximum number of NUL bytes tolerated in the
	// sample. Default: 1.
	MaxNULBytes int

	// MinSampleRows is the minimum number of rows required in the sample.
	// Rows are counted by LF bytes, plus one for bytes after the last LF
	// when the sample is all of the Guard's input, so an unterminated
	// final row also counts. Default: 2.
	MinSampleRows int
}

func (c *GuardConfig) norm() *GuardConfig {
	var cc GuardConfig
	if c != nil {
		cc = *c
	}
	if cc.SampleSize <= 0 {
		cc.SampleSize = 8 << 10
	}
	if cc.MaxNonPrintableFraction <= 0 {
		cc.MaxNonPrintableFraction = 0.15
	}
	if cc.MaxNULBytes <= 0 {
		cc.MaxNULBytes = 1
	}
	if cc.MinSampleRows <= 0 {
		cc.MinSampleRows = 2
	}
	return &cc
}

// SamplerConfig tunes the Strategy Sampler (§4.C).
type SamplerConfig struct {
	// SampleRows is how many complete rows from the block head are
	// evaluated. Default: 256.
	SampleRows int

	// MaxCoefficientOfVariation bounds how unevenly a candidate Strict
	// delimiter's per-row field count may vary across the sample.
	// Default: 0.1.
	MaxCoefficientOfVariation float64

	// MinStability is the minimum fraction of sampled rows that must
	// tokenize to the same arity under the chosen strategy. Default: 0.7.
	MinStability float64

	// Delimiters is the candidate delimiter set for Strict mode.
	// Default: {',', ';', '\t', '|'}.
	Delimiters []byte
}

func (c *SamplerConfig) norm() *SamplerConfig {
	var cc SamplerConfig
	if c != nil {
		cc = *c
	}
	if cc.SampleRows <= 0 {
		cc.SampleRows = 256
	}
	if cc.MaxCoefficientOfVariation <= 0 {
		cc.MaxCoefficientOfVariation = 0.1
	}
	if cc.MinStability <= 0 {
		cc.MinStability = 0.7
	}
	if len(cc.Delimiters) == 0 {
		cc.Delimiters = []byte{',', ';', '\t', '|'}
	}
	return &cc
}

// ColSepMode selects the on-disk column-value separator discipline
// recorded in a block's COLSEP_MODE flag (§4.G, §9 Open Questions).
type ColSepMode byte

const (
	// ColSepDelimited separates values in a column stream with a single
	// 0x1F byte.
	ColSepDelimited ColSepMode = iota
	// ColSepLengthPrefixed varint-length-prefixes every value. This is
	// CAST's default: it needs no escaping pass for values that happen
	// to contain 0x1F, and empty values are representable unambiguously.
	ColSepLengthPrefixed
)

// BlockConfig tunes the Block Assembler (§4.F).
type BlockConfig struct {
	// TargetBlockBytes is the uncompressed size at which a block is
	// sealed. Default: 64 MiB.
	TargetBlockBytes int64

	// MaxTemplates caps the Template Registry per block (§3). Default:
	// 65535.
	MaxTemplates int

	// ColSep selects the column-stream separator discipline. Default:
	// ColSepLengthPrefixed.
	ColSep ColSepMode

	Guard   *GuardConfig
	Sampler *SamplerConfig
}

func (c *BlockConfig) norm() *BlockConfig {
	var cc BlockConfig
	if c != nil {
		cc = *c
	}
	if cc.TargetBlockBytes <= 0 {
		cc.TargetBlockBytes = 64 << 20
	}
	if cc.MaxTemplates <= 0 || cc.MaxTemplates > 0xFFFF {
		cc.MaxTemplates = 0xFFFF
	}
	cc.Guard = cc.Guard.norm()
	cc.Sampler = cc.Sampler.norm()
	return &cc
}

// CoderMode selects which coder adapter backend is used (§4.I, §9
// "Polymorphism of coder back-ends").
type CoderMode string

const (
	CoderAuto     CoderMode = "auto"
	CoderNative   CoderMode = "native"
	CoderExternal CoderMode = "7zip"
)

// ContainerConfig tunes the Container driver (§4.J, §5).
type ContainerConfig struct {
	Block *BlockConfig

	// Coder selects the backend; CoderAuto prefers native and falls back
	// to external only if explicitly requested.
	Coder CoderMode

	// DictSize is the LZMA2 dictionary size in bytes. Default: 128 MiB.
	DictSize int

	// Threads bounds block-level worker parallelism during compression.
	// Default: 1 (solid, single-threaded).
	Threads int

	// Indexed requests a footer index enabling row-range random access.
	Indexed bool

	// Verify re-runs the reverse path and checks every CRC32 immediately
	// after compression.
	Verify bool
}

func (c *ContainerConfig) norm() *ContainerConfig {
	var cc ContainerConfig
	if c != nil {
		cc = *c
	}
	cc.Block = cc.Block.norm()
	if cc.Coder == "" {
		cc.Coder = CoderAuto
	}
	if cc.DictSize <= 0 {
		cc.DictSize = 128 << 20
	}
	if cc.Threads <= 0 {
		cc.Threads = 1
	}
	return &cc
}
