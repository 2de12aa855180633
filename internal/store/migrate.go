package store

// MigrateV0ToV1 rekeys notes, titles and custom colors from canonical
// position to space id. order lists the current space ids in canonical
// order; legacy keys with no space at that position are dropped. No-op for
// version >= 1. Reports whether the aggregate changed.
func MigrateV0ToV1(d *PersistData, order []uint64) bool {
	if d.Version >= 1 {
		return false
	}

	byPosition := make(map[uint64]uint64, len(order))
	for pos, sid := range order {
		byPosition[uint64(pos)] = sid
	}

	d.Notes = rekey(d.Notes, byPosition)
	d.Titles = rekey(d.Titles, byPosition)
	d.Settings.CustomColors = rekey(d.Settings.CustomColors, byPosition)
	d.Version = 1
	return true
}

func rekey[V any](old map[uint64]V, mapping map[uint64]uint64) map[uint64]V {
	out := make(map[uint64]V, len(old))
	for oldKey, v := range old {
		if newKey, ok := mapping[oldKey]; ok {
			out[newKey] = v
		}
	}
	return out
}
