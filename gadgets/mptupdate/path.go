package mptupdate

// PathKind classifies the relation between the old and the new
// authentication path at a row. Common means both paths still coincide at
// this depth. ExtensionOld means the new path terminated above this depth,
// so the new side is frozen while the old side continues downward;
// ExtensionNew is the symmetric case.
type PathKind uint8

const (
	PathStart PathKind = iota
	PathCommon
	PathExtensionOld
	PathExtensionNew
)

func pathKinds() []PathKind {
	return []PathKind{PathStart, PathCommon, PathExtensionOld, PathExtensionNew}
}

// pathBackwardTransitions lists, per path kind, the kinds its predecessor
// row may have. A path first diverges from Common (or from the start row)
// and never merges back.
func pathBackwardTransitions() []struct {
	sink    PathKind
	sources []PathKind
} {
	return []struct {
		sink    PathKind
		sources []PathKind
	}{
		{PathCommon, []PathKind{PathStart, PathCommon}},
		{PathExtensionOld, []PathKind{PathStart, PathCommon, PathExtensionOld}},
		{PathExtensionNew, []PathKind{PathStart, PathCommon, PathExtensionNew}},
	}
}

func (p PathKind) String() string {
	switch p {
	case PathStart:
		return "start"
	case PathCommon:
		return "common"
	case PathExtensionOld:
		return "extension_old"
	case PathExtensionNew:
		return "extension_new"
	}
	return "unknown"
}
