package terrain

// terMagic opens every TER file from version 1 on.
const terMagic = "TERR"

// legacyBytesPerCluster is the approximate size of one headerless
// version 0 cluster, used to infer the grid size from the file length.
const legacyBytesPerCluster = 0xFD

// legacyPadding is the reserved block closing each version 1-2 cluster.
const legacyPadding = 25

// compressionMask flags the attributes that vary across a cluster.
// A cleared bit means the attribute is stored as one broadcast value.
type compressionMask uint8

const (
	haveHeight compressionMask = 1 << iota
	haveColor
	haveAlpha1
	haveAlpha2
	haveAlpha3
	haveCell
)

const haveAll = haveHeight | haveColor | haveAlpha1 | haveAlpha2 | haveAlpha3 | haveCell

func (m compressionMask) has(flag compressionMask) bool { return m&flag != 0 }

// paddingFor returns the number of reserved bytes after each cluster.
func paddingFor(v Version) int {
	switch v {
	case 1:
		return legacyPadding
	case 2:
		return legacyPadding + 1
	default:
		return 0
	}
}

// minClusterBytes returns the fewest bytes one encoded cluster can take:
// the full block for versions without a mask, otherwise one broadcast
// value per attribute.
func minClusterBytes(v Version) int {
	const info = 4
	if v.HasCompressionMask() {
		return 1 + 4 + 3 + 3 + 1 + info // mask, height, color, alphas, cell
	}

	cs := v.ClusterSize()
	samples := cs * cs
	if v.isLegacy() {
		samples = (cs + 1) * (cs + 1)
	}

	perSample := 3 + 3 + 1 // color, alphas, cell
	if v.HasFloatHeights() {
		perSample += 4
	} else {
		perSample += 2
	}
	if v.HasNormals() {
		perSample++
	}
	return samples*perSample + info + paddingFor(v)
}
