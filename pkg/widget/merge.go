package widget

// Merge returns a new Data holding base with partial deep-merged into it.
//
// Object values merge recursively, key by key, to arbitrary depth. Every
// other value, arrays included, replaces the existing value wholesale:
// arrays are never concatenated or merged element-wise. Neither argument is
// modified.
func Merge(base, partial Data) Data {
	out := base.Clone()
	if out == nil {
		out = Data{}
	}
	mergeInto(out, partial)
	return out
}

func mergeInto(dst map[string]any, src map[string]any) {
	for k, v := range src {
		srcMap, srcIsMap := asObject(v)
		dstMap, dstIsMap := asObject(dst[k])
		if srcIsMap && dstIsMap {
			merged := cloneMap(dstMap)
			mergeInto(merged, srcMap)
			dst[k] = merged
			continue
		}
		dst[k] = cloneValue(v)
	}
}

func asObject(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Data:
		return m, true
	}
	return nil, false
}
