package download

import "github.com/quasar/launchercore/internal/core"

// ItemFromAsset adapts a core.Asset (the unit an Index Processor or the
// Java Guard produces) into the Item shape this queue downloads.
func ItemFromAsset(a core.Asset) Item {
	return Item{
		URL:       a.URL,
		Path:      a.Path,
		Algorithm: a.Algorithm,
		Hash:      a.Hash,
		Size:      a.Size,
	}
}

// ItemsFromAssets adapts a whole batch at once.
func ItemsFromAssets(assets []core.Asset) []Item {
	items := make([]Item, len(assets))
	for i, a := range assets {
		items[i] = ItemFromAsset(a)
	}
	return items
}
