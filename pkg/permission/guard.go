package permission

import (
	"fmt"

	"github.com/hydranet/hydranet/pkg/errdefs"
	"github.com/hydranet/hydranet/pkg/storage"
	"github.com/hydranet/hydranet/pkg/types"
)

// access selects which owner bit a check requires. Edit access also
// requires the view bit, matching the owner-table semantics.
type access int

const (
	accessView access = iota
	accessEdit
	accessShare
)

func (a access) String() string {
	switch a {
	case accessView:
		return "view"
	case accessEdit:
		return "edit"
	case accessShare:
		return "share"
	}
	return "unknown"
}

func granted(o *types.Owner, a access) bool {
	switch a {
	case accessView:
		return o.View == types.Yes
	case accessEdit:
		return o.View == types.Yes && o.Edit == types.Yes
	case accessShare:
		return o.Share == types.Yes
	}
	return false
}

// Visibility is the outcome of a hidden-dataset read check. Reads never
// fail on permission; they mask instead.
type Visibility int

const (
	Visible Visibility = iota
	Masked
)

// Guard evaluates ownership checks against the owner tables. Creators
// always pass; otherwise the entity's owner rows are scanned for the
// requesting user.
type Guard struct{}

func NewGuard() *Guard {
	return &Guard{}
}

// check is the common path: creator bypass, then owner-row scan.
func (g *Guard) check(tx *storage.Tx, kind types.OwnerKind, entityID, createdBy, userID int64, a access) error {
	if userID == createdBy {
		return nil
	}

	owners, err := tx.ListOwners(kind, entityID)
	if err != nil {
		return err
	}
	for _, o := range owners {
		if o.UserID == userID && granted(o, a) {
			return nil
		}
	}

	return fmt.Errorf("user %d lacks %s on %s %d: %w", userID, a, kind, entityID, errdefs.ErrPermission)
}

// Project checks

func (g *Guard) CanReadProject(tx *storage.Tx, projectID, userID int64) error {
	p, err := tx.GetProject(projectID)
	if err != nil {
		return err
	}
	return g.check(tx, types.OwnerKindProject, p.ID, p.CreatedBy, userID, accessView)
}

func (g *Guard) CanWriteProject(tx *storage.Tx, projectID, userID int64) error {
	p, err := tx.GetProject(projectID)
	if err != nil {
		return err
	}
	return g.check(tx, types.OwnerKindProject, p.ID, p.CreatedBy, userID, accessEdit)
}

func (g *Guard) CanShareProject(tx *storage.Tx, projectID, userID int64) error {
	p, err := tx.GetProject(projectID)
	if err != nil {
		return err
	}
	return g.check(tx, types.OwnerKindProject, p.ID, p.CreatedBy, userID, accessShare)
}

// Network checks. Nodes, links and resource groups delegate here.

func (g *Guard) CanReadNetwork(tx *storage.Tx, networkID, userID int64) error {
	n, err := tx.GetNetwork(networkID)
	if err != nil {
		return err
	}
	return g.check(tx, types.OwnerKindNetwork, n.ID, n.CreatedBy, userID, accessView)
}

func (g *Guard) CanWriteNetwork(tx *storage.Tx, networkID, userID int64) error {
	n, err := tx.GetNetwork(networkID)
	if err != nil {
		return err
	}
	return g.check(tx, types.OwnerKindNetwork, n.ID, n.CreatedBy, userID, accessEdit)
}

func (g *Guard) CanShareNetwork(tx *storage.Tx, networkID, userID int64) error {
	n, err := tx.GetNetwork(networkID)
	if err != nil {
		return err
	}
	return g.check(tx, types.OwnerKindNetwork, n.ID, n.CreatedBy, userID, accessShare)
}

// Scenario checks delegate to the owning network.

func (g *Guard) CanReadScenario(tx *storage.Tx, scenarioID, userID int64) error {
	s, err := tx.GetScenario(scenarioID)
	if err != nil {
		return err
	}
	return g.CanReadNetwork(tx, s.NetworkID, userID)
}

func (g *Guard) CanWriteScenario(tx *storage.Tx, scenarioID, userID int64) error {
	s, err := tx.GetScenario(scenarioID)
	if err != nil {
		return err
	}
	return g.CanWriteNetwork(tx, s.NetworkID, userID)
}

// Template checks. Reads additionally pass when an owner row exists for
// the anonymous user, making templates world-readable by default.

func (g *Guard) CanReadTemplate(tx *storage.Tx, templateID, userID int64) error {
	t, err := tx.GetTemplate(templateID)
	if err != nil {
		return err
	}
	if err := g.check(tx, types.OwnerKindTemplate, t.ID, t.CreatedBy, userID, accessView); err == nil {
		return nil
	}

	owners, err := tx.ListOwners(types.OwnerKindTemplate, t.ID)
	if err != nil {
		return err
	}
	for _, o := range owners {
		if o.UserID == types.AnonymousUserID && granted(o, accessView) {
			return nil
		}
	}

	return fmt.Errorf("user %d lacks view on template %d: %w", userID, t.ID, errdefs.ErrPermission)
}

func (g *Guard) CanWriteTemplate(tx *storage.Tx, templateID, userID int64) error {
	t, err := tx.GetTemplate(templateID)
	if err != nil {
		return err
	}
	return g.check(tx, types.OwnerKindTemplate, t.ID, t.CreatedBy, userID, accessEdit)
}

// Dataset checks

func (g *Guard) CanReadDataset(tx *storage.Tx, ds *types.Dataset, userID int64) error {
	return g.check(tx, types.OwnerKindDataset, ds.ID, ds.CreatedBy, userID, accessView)
}

func (g *Guard) CanWriteDataset(tx *storage.Tx, ds *types.Dataset, userID int64) error {
	return g.check(tx, types.OwnerKindDataset, ds.ID, ds.CreatedBy, userID, accessEdit)
}

func (g *Guard) CanShareDataset(tx *storage.Tx, ds *types.Dataset, userID int64) error {
	return g.check(tx, types.OwnerKindDataset, ds.ID, ds.CreatedBy, userID, accessShare)
}

// TryView decides whether a read of the dataset returns the real payload
// or a masked copy. It never returns an error: visibility failures on
// reads mask silently.
func (g *Guard) TryView(tx *storage.Tx, ds *types.Dataset, userID int64) Visibility {
	if ds.Hidden != types.Yes {
		return Visible
	}
	if err := g.CanReadDataset(tx, ds, userID); err != nil {
		return Masked
	}
	return Visible
}

// MaskDataset blanks the value-bearing fields of a hidden dataset in
// place. Identity fields (id, name, type, hash) stay visible.
func MaskDataset(ds *types.Dataset) {
	ds.Value = nil
	ds.Metadata = map[string]string{}
	ds.StartTime = ""
	ds.Frequency = ""
}
