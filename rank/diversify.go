package rank

// Diversify applies the ranker's configured per-domain cap.
func (r *Ranker) Diversify(ranked []Scored, topN int) []Scored {
	return Diversify(ranked, r.cfg.PerDomainCap, topN)
}

// Diversify walks the ranked list once in order, keeping at most
// perDomainCap results from any single domain, until topN results are
// collected or the list ends. The output is a rank-order subset of the
// input; nothing is re-sorted.
func Diversify(ranked []Scored, perDomainCap, topN int) []Scored {
	if topN <= 0 || perDomainCap <= 0 {
		return nil
	}

	perDomain := make(map[string]int)
	result := make([]Scored, 0, min(topN, len(ranked)))
	for _, s := range ranked {
		if perDomain[s.Doc.Domain] >= perDomainCap {
			continue
		}
		perDomain[s.Doc.Domain]++
		result = append(result, s)
		if len(result) == topN {
			break
		}
	}
	return result
}
