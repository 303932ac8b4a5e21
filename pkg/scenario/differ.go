package scenario

import (
	"fmt"
	"sort"
	"time"

	"github.com/hydranet/hydranet/pkg/dataset"
	"github.com/hydranet/hydranet/pkg/errdefs"
	"github.com/hydranet/hydranet/pkg/permission"
	"github.com/hydranet/hydranet/pkg/storage"
	"github.com/hydranet/hydranet/pkg/types"
)

// ResourceScenarioDiff is one differing binding. A nil dataset means the
// scenario has no binding for the resource attribute.
type ResourceScenarioDiff struct {
	ResourceAttrID   int64
	Scenario1Dataset *types.Dataset
	Scenario2Dataset *types.Dataset
}

// GroupDiff holds the membership rows exclusive to each side.
type GroupDiff struct {
	Scenario1Items []*types.ResourceGroupItem
	Scenario2Items []*types.ResourceGroupItem
}

// Diff is the outcome of comparing two scenarios.
type Diff struct {
	ResourceScenarios []*ResourceScenarioDiff
	Groups            GroupDiff
}

// groupKey is the identity of a membership row for set comparison.
type groupKey struct {
	GroupID    int64
	RefKey     types.RefKey
	NodeID     int64
	LinkID     int64
	SubgroupID int64
}

func keyOf(item *types.ResourceGroupItem) groupKey {
	return groupKey{
		GroupID:    item.GroupID,
		RefKey:     item.RefKey,
		NodeID:     item.NodeID,
		LinkID:     item.LinkID,
		SubgroupID: item.SubgroupID,
	}
}

// CompareScenarios diffs two scenarios of the same network: bindings
// whose datasets differ or exist on one side only, and the symmetric
// difference of group membership. Hidden datasets the user cannot view
// come back masked.
func (e *Engine) CompareScenarios(scenario1ID, scenario2ID int64, userID int64) (diff *Diff, err error) {
	start := time.Now()
	defer func() { e.observe("compare_scenarios", start, err) }()

	diff = &Diff{}
	err = e.store.View(func(tx *storage.Tx) error {
		s1, err := tx.GetScenario(scenario1ID)
		if err != nil {
			return err
		}
		s2, err := tx.GetScenario(scenario2ID)
		if err != nil {
			return err
		}
		if s1.NetworkID != s2.NetworkID {
			return fmt.Errorf("scenarios %d and %d belong to different networks: %w",
				scenario1ID, scenario2ID, errdefs.ErrCrossNetwork)
		}
		if err := e.guard.CanReadNetwork(tx, s1.NetworkID, userID); err != nil {
			return err
		}

		if err := e.diffResourceScenarios(tx, diff, scenario1ID, scenario2ID, userID); err != nil {
			return err
		}
		return e.diffGroups(tx, diff, scenario1ID, scenario2ID)
	})
	if err != nil {
		return nil, err
	}
	return diff, nil
}

func (e *Engine) diffResourceScenarios(tx *storage.Tx, diff *Diff, s1ID, s2ID int64, userID int64) error {
	rss1, err := tx.ListResourceScenarios(s1ID)
	if err != nil {
		return err
	}
	rss2, err := tx.ListResourceScenarios(s2ID)
	if err != nil {
		return err
	}

	byRA1 := make(map[int64]*types.ResourceScenario, len(rss1))
	for _, rs := range rss1 {
		byRA1[rs.ResourceAttrID] = rs
	}
	byRA2 := make(map[int64]*types.ResourceScenario, len(rss2))
	for _, rs := range rss2 {
		byRA2[rs.ResourceAttrID] = rs
	}

	raIDs := make([]int64, 0, len(byRA1)+len(byRA2))
	for id := range byRA1 {
		raIDs = append(raIDs, id)
	}
	for id := range byRA2 {
		if _, ok := byRA1[id]; !ok {
			raIDs = append(raIDs, id)
		}
	}
	sort.Slice(raIDs, func(i, j int) bool { return raIDs[i] < raIDs[j] })

	for _, raID := range raIDs {
		rs1, rs2 := byRA1[raID], byRA2[raID]
		if rs1 != nil && rs2 != nil && rs1.DatasetID == rs2.DatasetID {
			continue
		}

		entry := &ResourceScenarioDiff{ResourceAttrID: raID}
		if rs1 != nil {
			entry.Scenario1Dataset, err = e.presentDataset(tx, rs1.DatasetID, userID)
			if err != nil {
				return err
			}
		}
		if rs2 != nil {
			entry.Scenario2Dataset, err = e.presentDataset(tx, rs2.DatasetID, userID)
			if err != nil {
				return err
			}
		}
		diff.ResourceScenarios = append(diff.ResourceScenarios, entry)
	}
	return nil
}

// presentDataset loads a dataset for returning to a caller: inflated and
// masked when hidden from the user.
func (e *Engine) presentDataset(tx *storage.Tx, datasetID, userID int64) (*types.Dataset, error) {
	ds, err := tx.GetDataset(datasetID)
	if err != nil {
		return nil, err
	}
	if e.guard.TryView(tx, ds, userID) == permission.Masked {
		permission.MaskDataset(ds)
		return ds, nil
	}
	ds.Value = dataset.Inflate(ds.Value)
	return ds, nil
}

func (e *Engine) diffGroups(tx *storage.Tx, diff *Diff, s1ID, s2ID int64) error {
	items1, err := tx.ListGroupItemsByScenario(s1ID)
	if err != nil {
		return err
	}
	items2, err := tx.ListGroupItemsByScenario(s2ID)
	if err != nil {
		return err
	}

	set1 := make(map[groupKey]bool, len(items1))
	for _, item := range items1 {
		set1[keyOf(item)] = true
	}
	set2 := make(map[groupKey]bool, len(items2))
	for _, item := range items2 {
		set2[keyOf(item)] = true
	}

	for _, item := range items1 {
		if !set2[keyOf(item)] {
			diff.Groups.Scenario1Items = append(diff.Groups.Scenario1Items, item)
		}
	}
	for _, item := range items2 {
		if !set1[keyOf(item)] {
			diff.Groups.Scenario2Items = append(diff.Groups.Scenario2Items, item)
		}
	}
	return nil
}
