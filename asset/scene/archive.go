package scene

// Entry names used by compiled scene archives.
const (
	ArchiveNodes              = "bvh_nodes.bin"
	ArchivePositions          = "bvh_positions.bin"
	ArchivePositionAttributes = "position_attributes.bin"
	ArchiveVertexAttributes   = "vertex_attributes.bin"
	ArchiveMetadata           = "scene.bin"
)

// Scene fields that are not stored as fixed-layout blobs. Archives store
// them gob-encoded.
type Metadata struct {
	Name            string
	TriangleIndices []uint32
	TextureNames    []string
	BuildInfo       BuildInfo
}

// A named blob entry. Data points to the scene slice backing the entry.
type BlobEntry struct {
	Name string
	Data interface{}
}

// Get the blob entries of the scene in archive order.
func (sc *Scene) BlobEntries() []BlobEntry {
	return []BlobEntry{
		{ArchiveNodes, &sc.BvhNodes},
		{ArchivePositions, &sc.BvhPositions},
		{ArchivePositionAttributes, &sc.PositionAttributes},
		{ArchiveVertexAttributes, &sc.VertexAttributes},
	}
}

// Get scene metadata.
func (sc *Scene) Metadata() Metadata {
	return Metadata{
		Name:            sc.Name,
		TriangleIndices: sc.TriangleIndices,
		TextureNames:    sc.TextureNames,
		BuildInfo:       sc.BuildInfo,
	}
}

// Overwrite scene metadata.
func (sc *Scene) SetMetadata(md Metadata) {
	sc.Name = md.Name
	sc.TriangleIndices = md.TriangleIndices
	sc.TextureNames = md.TextureNames
	sc.BuildInfo = md.BuildInfo
}
