package cast

import "math"

// strategyCandidate holds one strategy's evaluation against a row
// sample: its aggregate coverage score and the stability fraction §4.C
// requires before a strategy is eligible at all.
type strategyCandidate struct {
	st        strategy
	score     float64
	stability float64
}

// coverage computes bytes_in_variable_fields / row_length for one
// tokenized row, and its arity.
func coverage(toks []token, rowLen int) (cov float64, arity int) {
	var varBytes int
	for _, t := range toks {
		if t.kind == tokVariable {
			varBytes += t.span.len
			arity++
		}
	}
	if rowLen > 0 {
		cov = float64(varBytes) / float64(rowLen)
	}
	return cov, arity
}

// coefficientOfVariation computes stddev/mean over arities. Rows that
// are ALL zero-arity are treated as perfectly consistent (CV 0); a
// non-zero spread with a zero mean (impossible for non-negative data
// unless all are zero) can't otherwise occur.
func coefficientOfVariation(arities []int) float64 {
	n := len(arities)
	if n == 0 {
		return math.Inf(1)
	}
	var sum float64
	for _, a := range arities {
		sum += float64(a)
	}
	mean := sum / float64(n)
	if mean == 0 {
		return 0
	}
	var sq float64
	for _, a := range arities {
		d := float64(a) - mean
		sq += d * d
	}
	return math.Sqrt(sq/float64(n)) / mean
}

// evaluateStrategy tokenizes every sampled row under st and returns the
// summed coverage score and the stability fraction (the share of rows
// whose arity matches the sample's most common arity).
func evaluateStrategy(arena []byte, rows []view, st strategy) strategyCandidate {
	counts := make(map[int]int, 4)
	var score float64
	for _, r := range rows {
		toks := tokenizeRow(arena, r.off, r.off+r.len, st)
		cov, arity := coverage(toks, r.len)
		score += cov
		counts[arity]++
	}
	var mode int
	for _, c := range counts {
		if c > mode {
			mode = c
		}
	}
	var stability float64
	if len(rows) > 0 {
		stability = float64(mode) / float64(len(rows))
	}
	return strategyCandidate{st: st, score: score, stability: stability}
}

// chooseStrategy implements the Strategy Sampler of §4.C: it evaluates
// Strict (once, against its most consistent delimiter) and Aggressive
// against up to cfg.SampleRows rows from the head of arena, and returns
// the winner. ok is false when neither strategy clears the stability
// threshold, signaling the block should be re-flagged OPAQUE.
func chooseStrategy(arena []byte, cfg *SamplerConfig) (strategy, bool) {
	rows := sampleRowSpans(arena, cfg.SampleRows)
	if len(rows) == 0 {
		return strategy{}, false
	}

	var strictBest *strategyCandidate
	bestCV := math.Inf(1)
	for _, d := range cfg.Delimiters {
		st := strategy{kind: strategyStrict, delim: d}
		arities := make([]int, len(rows))
		maxArity := 0
		for i, r := range rows {
			toks := tokenizeRow(arena, r.off, r.off+r.len, st)
			arities[i] = arityOf(toks)
			if arities[i] > maxArity {
				maxArity = arities[i]
			}
		}
		if maxArity <= 1 {
			// d never actually splits a row in the sample; a constant
			// arity-1 template carries no real structure and shouldn't
			// out-score a delimiter that does.
			continue
		}
		cv := coefficientOfVariation(arities)
		if cv > cfg.MaxCoefficientOfVariation {
			continue
		}
		if cv < bestCV {
			bestCV = cv
			cand := evaluateStrategy(arena, rows, st)
			strictBest = &cand
		}
	}

	aggCand := evaluateStrategy(arena, rows, strategy{kind: strategyAggressive})

	strictOK := strictBest != nil && strictBest.stability >= cfg.MinStability
	aggOK := aggCand.stability >= cfg.MinStability

	switch {
	case strictOK && aggOK:
		if strictBest.score >= aggCand.score {
			return strictBest.st, true
		}
		return aggCand.st, true
	case strictOK:
		return strictBest.st, true
	case aggOK:
		return aggCand.st, true
	default:
		return strategy{}, false
	}
}
