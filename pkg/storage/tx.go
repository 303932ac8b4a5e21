package storage

import (
	"encoding/json"
	"fmt"

	"github.com/hydranet/hydranet/pkg/errdefs"
	"github.com/hydranet/hydranet/pkg/types"
)

// User operations

func (tx *Tx) CreateUser(user *types.User) error {
	b := tx.btx.Bucket(bucketUsers)
	if user.ID == 0 {
		id, err := nextID(b)
		if err != nil {
			return err
		}
		user.ID = id
	}
	return putJSON(b, itob(user.ID), user)
}

func (tx *Tx) GetUser(id int64) (*types.User, error) {
	var user types.User
	data := tx.btx.Bucket(bucketUsers).Get(itob(id))
	if data == nil {
		return nil, fmt.Errorf("user %d: %w", id, errdefs.ErrNotFound)
	}
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Project operations

func (tx *Tx) CreateProject(project *types.Project) error {
	b := tx.btx.Bucket(bucketProjects)
	if project.ID == 0 {
		id, err := nextID(b)
		if err != nil {
			return err
		}
		project.ID = id
	}
	return putJSON(b, itob(project.ID), project)
}

func (tx *Tx) GetProject(id int64) (*types.Project, error) {
	var project types.Project
	data := tx.btx.Bucket(bucketProjects).Get(itob(id))
	if data == nil {
		return nil, fmt.Errorf("project %d: %w", id, errdefs.ErrNotFound)
	}
	if err := json.Unmarshal(data, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (tx *Tx) PutProject(project *types.Project) error {
	return putJSON(tx.btx.Bucket(bucketProjects), itob(project.ID), project)
}

// Network operations

func (tx *Tx) CreateNetwork(network *types.Network) error {
	if _, err := tx.GetProject(network.ProjectID); err != nil {
		return err
	}

	existing, err := tx.ListNetworksByProject(network.ProjectID)
	if err != nil {
		return err
	}
	for _, n := range existing {
		if n.Name == network.Name {
			return fmt.Errorf("network %q already exists in project %d: %w",
				network.Name, network.ProjectID, errdefs.ErrConflict)
		}
	}

	b := tx.btx.Bucket(bucketNetworks)
	if network.ID == 0 {
		id, err := nextID(b)
		if err != nil {
			return err
		}
		network.ID = id
	}
	return putJSON(b, itob(network.ID), network)
}

func (tx *Tx) GetNetwork(id int64) (*types.Network, error) {
	var network types.Network
	data := tx.btx.Bucket(bucketNetworks).Get(itob(id))
	if data == nil {
		return nil, fmt.Errorf("network %d: %w", id, errdefs.ErrNotFound)
	}
	if err := json.Unmarshal(data, &network); err != nil {
		return nil, err
	}
	return &network, nil
}

func (tx *Tx) PutNetwork(network *types.Network) error {
	return putJSON(tx.btx.Bucket(bucketNetworks), itob(network.ID), network)
}

func (tx *Tx) ListNetworksByProject(projectID int64) ([]*types.Network, error) {
	var networks []*types.Network
	err := tx.btx.Bucket(bucketNetworks).ForEach(func(k, v []byte) error {
		var network types.Network
		if err := json.Unmarshal(v, &network); err != nil {
			return err
		}
		if network.ProjectID == projectID {
			networks = append(networks, &network)
		}
		return nil
	})
	return networks, err
}

// Node operations

func (tx *Tx) CreateNode(node *types.Node) error {
	if _, err := tx.GetNetwork(node.NetworkID); err != nil {
		return err
	}

	existing, err := tx.ListNodesByNetwork(node.NetworkID)
	if err != nil {
		return err
	}
	for _, n := range existing {
		if n.Name == node.Name {
			return fmt.Errorf("node %q already exists in network %d: %w",
				node.Name, node.NetworkID, errdefs.ErrConflict)
		}
	}

	b := tx.btx.Bucket(bucketNodes)
	if node.ID == 0 {
		id, err := nextID(b)
		if err != nil {
			return err
		}
		node.ID = id
	}
	return putJSON(b, itob(node.ID), node)
}

func (tx *Tx) GetNode(id int64) (*types.Node, error) {
	var node types.Node
	data := tx.btx.Bucket(bucketNodes).Get(itob(id))
	if data == nil {
		return nil, fmt.Errorf("node %d: %w", id, errdefs.ErrNotFound)
	}
	if err := json.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	return &node, nil
}

func (tx *Tx) ListNodesByNetwork(networkID int64) ([]*types.Node, error) {
	var nodes []*types.Node
	err := tx.btx.Bucket(bucketNodes).ForEach(func(k, v []byte) error {
		var node types.Node
		if err := json.Unmarshal(v, &node); err != nil {
			return err
		}
		if node.NetworkID == networkID {
			nodes = append(nodes, &node)
		}
		return nil
	})
	return nodes, err
}

// Link operations

func (tx *Tx) CreateLink(link *types.Link) error {
	node1, err := tx.GetNode(link.Node1ID)
	if err != nil {
		return err
	}
	node2, err := tx.GetNode(link.Node2ID)
	if err != nil {
		return err
	}
	if node1.NetworkID != link.NetworkID || node2.NetworkID != link.NetworkID {
		return fmt.Errorf("link %q joins nodes outside network %d: %w",
			link.Name, link.NetworkID, errdefs.ErrCrossNetwork)
	}

	existing, err := tx.ListLinksByNetwork(link.NetworkID)
	if err != nil {
		return err
	}
	for _, l := range existing {
		if l.Name == link.Name {
			return fmt.Errorf("link %q already exists in network %d: %w",
				link.Name, link.NetworkID, errdefs.ErrConflict)
		}
	}

	b := tx.btx.Bucket(bucketLinks)
	if link.ID == 0 {
		id, err := nextID(b)
		if err != nil {
			return err
		}
		link.ID = id
	}
	return putJSON(b, itob(link.ID), link)
}

func (tx *Tx) GetLink(id int64) (*types.Link, error) {
	var link types.Link
	data := tx.btx.Bucket(bucketLinks).Get(itob(id))
	if data == nil {
		return nil, fmt.Errorf("link %d: %w", id, errdefs.ErrNotFound)
	}
	if err := json.Unmarshal(data, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

func (tx *Tx) ListLinksByNetwork(networkID int64) ([]*types.Link, error) {
	var links []*types.Link
	err := tx.btx.Bucket(bucketLinks).ForEach(func(k, v []byte) error {
		var link types.Link
		if err := json.Unmarshal(v, &link); err != nil {
			return err
		}
		if link.NetworkID == networkID {
			links = append(links, &link)
		}
		return nil
	})
	return links, err
}

// ResourceGroup operations

func (tx *Tx) CreateResourceGroup(group *types.ResourceGroup) error {
	if _, err := tx.GetNetwork(group.NetworkID); err != nil {
		return err
	}

	existing, err := tx.ListResourceGroupsByNetwork(group.NetworkID)
	if err != nil {
		return err
	}
	for _, g := range existing {
		if g.Name == group.Name {
			return fmt.Errorf("resource group %q already exists in network %d: %w",
				group.Name, group.NetworkID, errdefs.ErrConflict)
		}
	}

	b := tx.btx.Bucket(bucketGroups)
	if group.ID == 0 {
		id, err := nextID(b)
		if err != nil {
			return err
		}
		group.ID = id
	}
	return putJSON(b, itob(group.ID), group)
}

func (tx *Tx) GetResourceGroup(id int64) (*types.ResourceGroup, error) {
	var group types.ResourceGroup
	data := tx.btx.Bucket(bucketGroups).Get(itob(id))
	if data == nil {
		return nil, fmt.Errorf("resource group %d: %w", id, errdefs.ErrNotFound)
	}
	if err := json.Unmarshal(data, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

func (tx *Tx) ListResourceGroupsByNetwork(networkID int64) ([]*types.ResourceGroup, error) {
	var groups []*types.ResourceGroup
	err := tx.btx.Bucket(bucketGroups).ForEach(func(k, v []byte) error {
		var group types.ResourceGroup
		if err := json.Unmarshal(v, &group); err != nil {
			return err
		}
		if group.NetworkID == networkID {
			groups = append(groups, &group)
		}
		return nil
	})
	return groups, err
}

// Attr operations

func (tx *Tx) CreateAttr(attr *types.Attr) error {
	existing, err := tx.ListAttrs()
	if err != nil {
		return err
	}
	for _, a := range existing {
		if a.Name == attr.Name && a.Dimension == attr.Dimension {
			return fmt.Errorf("attr (%q, %q) already exists: %w",
				attr.Name, attr.Dimension, errdefs.ErrConflict)
		}
	}

	b := tx.btx.Bucket(bucketAttrs)
	if attr.ID == 0 {
		id, err := nextID(b)
		if err != nil {
			return err
		}
		attr.ID = id
	}
	return putJSON(b, itob(attr.ID), attr)
}

func (tx *Tx) GetAttr(id int64) (*types.Attr, error) {
	var attr types.Attr
	data := tx.btx.Bucket(bucketAttrs).Get(itob(id))
	if data == nil {
		return nil, fmt.Errorf("attr %d: %w", id, errdefs.ErrNotFound)
	}
	if err := json.Unmarshal(data, &attr); err != nil {
		return nil, err
	}
	return &attr, nil
}

func (tx *Tx) ListAttrs() ([]*types.Attr, error) {
	var attrs []*types.Attr
	err := tx.btx.Bucket(bucketAttrs).ForEach(func(k, v []byte) error {
		var attr types.Attr
		if err := json.Unmarshal(v, &attr); err != nil {
			return err
		}
		attrs = append(attrs, &attr)
		return nil
	})
	return attrs, err
}

// ResourceAttr operations

func (tx *Tx) CreateResourceAttr(ra *types.ResourceAttr) error {
	existing, err := tx.ListResourceAttrsForResource(ra.RefKey, ra.ResourceID())
	if err != nil {
		return err
	}
	for _, e := range existing {
		if e.AttrID == ra.AttrID {
			return fmt.Errorf("attr %d already bound to %s %d: %w",
				ra.AttrID, ra.RefKey, ra.ResourceID(), errdefs.ErrConflict)
		}
	}

	b := tx.btx.Bucket(bucketResourceAttrs)
	if ra.ID == 0 {
		id, err := nextID(b)
		if err != nil {
			return err
		}
		ra.ID = id
	}
	return putJSON(b, itob(ra.ID), ra)
}

func (tx *Tx) GetResourceAttr(id int64) (*types.ResourceAttr, error) {
	var ra types.ResourceAttr
	data := tx.btx.Bucket(bucketResourceAttrs).Get(itob(id))
	if data == nil {
		return nil, fmt.Errorf("resource attr %d: %w", id, errdefs.ErrNotFound)
	}
	if err := json.Unmarshal(data, &ra); err != nil {
		return nil, err
	}
	return &ra, nil
}

func (tx *Tx) ListResourceAttrsForResource(refKey types.RefKey, resourceID int64) ([]*types.ResourceAttr, error) {
	var ras []*types.ResourceAttr
	err := tx.btx.Bucket(bucketResourceAttrs).ForEach(func(k, v []byte) error {
		var ra types.ResourceAttr
		if err := json.Unmarshal(v, &ra); err != nil {
			return err
		}
		if ra.RefKey == refKey && ra.ResourceID() == resourceID {
			ras = append(ras, &ra)
		}
		return nil
	})
	return ras, err
}

func (tx *Tx) ListResourceAttrsByAttr(attrID int64) ([]*types.ResourceAttr, error) {
	var ras []*types.ResourceAttr
	err := tx.btx.Bucket(bucketResourceAttrs).ForEach(func(k, v []byte) error {
		var ra types.ResourceAttr
		if err := json.Unmarshal(v, &ra); err != nil {
			return err
		}
		if ra.AttrID == attrID {
			ras = append(ras, &ra)
		}
		return nil
	})
	return ras, err
}
