package types

import (
	"time"
)

// RefKey identifies which kind of resource a polymorphic reference points at.
type RefKey string

const (
	RefKeyProject RefKey = "PROJECT"
	RefKeyNetwork RefKey = "NETWORK"
	RefKeyNode    RefKey = "NODE"
	RefKeyLink    RefKey = "LINK"
	RefKeyGroup   RefKey = "GROUP"
)

// YesNo is the single-character boolean used throughout the schema.
type YesNo string

const (
	Yes YesNo = "Y"
	No  YesNo = "N"
)

// Status marks an entity as active or soft-deleted.
type Status string

const (
	StatusActive  Status = "A"
	StatusDeleted Status = "X"
)

// DataType enumerates the dataset payload types.
type DataType string

const (
	DataTypeScalar     DataType = "scalar"
	DataTypeDescriptor DataType = "descriptor"
	DataTypeArray      DataType = "array"
	DataTypeTimeseries DataType = "timeseries"
)

// AnonymousUserID is the system user whose template owner rows grant
// read access to everybody.
const AnonymousUserID int64 = 1

// Project is the root of a subtree of networks.
type Project struct {
	ID          int64
	Name        string
	Description string
	Status      Status
	CreatedBy   int64
	CreatedAt   time.Time
}

// Network owns nodes, links, resource groups and scenarios.
type Network struct {
	ID          int64
	ProjectID   int64
	Name        string
	Description string
	Status      Status
	Projection  string
	CreatedBy   int64
	CreatedAt   time.Time
}

// Node is a point in a network's topology.
type Node struct {
	ID          int64
	NetworkID   int64
	Name        string
	Description string
	Status      Status
	X           float64
	Y           float64
	CreatedAt   time.Time
}

// Link joins two nodes of the same network.
type Link struct {
	ID          int64
	NetworkID   int64
	Name        string
	Description string
	Status      Status
	Node1ID     int64
	Node2ID     int64
	CreatedAt   time.Time
}

// ResourceGroup is a named collection of topology elements whose
// membership varies per scenario.
type ResourceGroup struct {
	ID          int64
	NetworkID   int64
	Name        string
	Description string
	Status      Status
	CreatedAt   time.Time
}

// Attr is a named, dimensioned property that resources may carry.
// The (Name, Dimension) pair is unique.
type Attr struct {
	ID          int64
	Name        string
	Dimension   string
	Description string
	CreatedAt   time.Time
}

// ResourceAttr binds one Attr to one resource. Exactly one of the five
// foreign-key slots is set, selected by RefKey.
type ResourceAttr struct {
	ID        int64
	AttrID    int64
	RefKey    RefKey
	ProjectID int64
	NetworkID int64
	NodeID    int64
	LinkID    int64
	GroupID   int64
	IsVar     YesNo
	CreatedAt time.Time
}

// ResourceID returns the id held in the foreign-key slot selected by RefKey.
func (ra *ResourceAttr) ResourceID() int64 {
	switch ra.RefKey {
	case RefKeyProject:
		return ra.ProjectID
	case RefKeyNetwork:
		return ra.NetworkID
	case RefKeyNode:
		return ra.NodeID
	case RefKeyLink:
		return ra.LinkID
	case RefKeyGroup:
		return ra.GroupID
	}
	return 0
}

// Dataset is a content-addressed, typed, possibly zlib-compressed value
// payload plus metadata. Hash is unique across the store and fingerprints
// (Name, Units, Dimension, Type, Value, Metadata).
type Dataset struct {
	ID        int64
	Type      DataType
	Name      string
	Units     string
	Dimension string
	Value     []byte
	Hash      uint64
	Hidden    YesNo
	StartTime string
	Frequency string
	Metadata  map[string]string
	CreatedBy int64
	CreatedAt time.Time
}

// Scenario is a versioned snapshot of every resource attribute's dataset
// binding and group membership within a network. Name is unique per network.
type Scenario struct {
	ID          int64
	NetworkID   int64
	Name        string
	Description string
	Status      Status
	StartTime   string
	EndTime     string
	TimeStep    string
	Locked      YesNo
	CreatedBy   int64
	CreatedAt   time.Time
}

// ResourceScenario binds one resource attribute to one dataset within a
// scenario. Primary key is (ScenarioID, ResourceAttrID).
type ResourceScenario struct {
	ScenarioID     int64
	ResourceAttrID int64
	DatasetID      int64
	Source         string
	CreatedAt      time.Time
}

// ResourceGroupItem records one member of a resource group in a scenario.
// RefKey selects which of NodeID/LinkID/SubgroupID is set.
type ResourceGroupItem struct {
	ID         int64
	ScenarioID int64
	GroupID    int64
	RefKey     RefKey
	NodeID     int64
	LinkID     int64
	SubgroupID int64
	CreatedAt  time.Time
}

// MemberID returns the id of the group member selected by RefKey.
func (gi *ResourceGroupItem) MemberID() int64 {
	switch gi.RefKey {
	case RefKeyNode:
		return gi.NodeID
	case RefKeyLink:
		return gi.LinkID
	case RefKeyGroup:
		return gi.SubgroupID
	}
	return 0
}

// Owner is one (user, entity) permission row carrying view/edit/share bits.
type Owner struct {
	EntityID  int64
	UserID    int64
	View      YesNo
	Edit      YesNo
	Share     YesNo
	CreatedAt time.Time
}

// OwnerKind selects which owner table a row belongs to.
type OwnerKind string

const (
	OwnerKindProject  OwnerKind = "project"
	OwnerKindNetwork  OwnerKind = "network"
	OwnerKindTemplate OwnerKind = "template"
	OwnerKindDataset  OwnerKind = "dataset"
)

// Template is a reusable set of resource types.
type Template struct {
	ID        int64
	Name      string
	CreatedBy int64
	CreatedAt time.Time
}

// TemplateType is one resource type within a template.
type TemplateType struct {
	ID           int64
	TemplateID   int64
	Name         string
	ResourceType RefKey
	CreatedAt    time.Time
}

// TypeAttr attaches an attribute to a template type. Queries filtered by
// type_id resolve to the attr ids listed here.
type TypeAttr struct {
	TypeID    int64
	AttrID    int64
	IsVar     YesNo
	DataType  DataType
	CreatedAt time.Time
}

// AttrMap records that two attributes are equivalent across networks.
type AttrMap struct {
	AttrAID int64
	AttrBID int64
}

// ResourceAttrMap links two resource attributes so values can be
// propagated between scenarios. Lookups are order-insensitive.
type ResourceAttrMap struct {
	NetworkAID      int64
	NetworkBID      int64
	ResourceAttrAID int64
	ResourceAttrBID int64
}

// User is a minimal account record; authentication lives outside the core.
type User struct {
	ID          int64
	Username    string
	DisplayName string
	CreatedAt   time.Time
}

// DatasetCollection is a named grouping of datasets.
type DatasetCollection struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// DatasetCollectionItem is the membership row of a collection.
type DatasetCollectionItem struct {
	CollectionID int64
	DatasetID    int64
	CreatedAt    time.Time
}

// Rule is an arbitrary piece of text applied to a resource within a
// scenario. Rules are removed when their scenario is purged.
type Rule struct {
	ID          int64
	ScenarioID  int64
	Name        string
	Description string
	Text        []byte
	Status      Status
	RefKey      RefKey
	NetworkID   int64
	NodeID      int64
	LinkID      int64
	GroupID     int64
	CreatedAt   time.Time
}

// Note is free text attached to a resource or scenario; unlike rules it is
// not scenario-dependent unless bound to one.
type Note struct {
	ID         int64
	RefKey     RefKey
	Text       []byte
	ScenarioID int64
	ProjectID  int64
	NetworkID  int64
	NodeID     int64
	LinkID     int64
	GroupID    int64
	CreatedBy  int64
	CreatedAt  time.Time
}
