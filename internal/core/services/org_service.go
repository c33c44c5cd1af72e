package services

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"coop-memberhub/internal/adapters/persistence/models"
	"coop-memberhub/internal/adapters/persistence/repositories"
	"coop-memberhub/internal/core/domain"

	"gorm.io/gorm"
)

// MaxPathLength caps the materialized path column.
const MaxPathLength = 500

// OrgService handles org hierarchy business logic
type OrgService struct {
	db         *gorm.DB
	orgRepo    *repositories.OrgRepository
	memberRepo repositories.MemberRepository
}

// NewOrgService creates a new org service
func NewOrgService(db *gorm.DB, orgRepo *repositories.OrgRepository, memberRepo repositories.MemberRepository) *OrgService {
	return &OrgService{
		db:         db,
		orgRepo:    orgRepo,
		memberRepo: memberRepo,
	}
}

// CreateUnitInput represents create unit input
type CreateUnitInput struct {
	ParentID *uint  `json:"parent_id"`
	Name     string `json:"name" validate:"required"`
}

// CreateUnit creates a new org unit under the given parent, or a new root
// when parent is omitted. Path and level derive from the parent's stored
// values; the parent's leaf flag flips in the same transaction.
func (s *OrgService) CreateUnit(ctx context.Context, input *CreateUnitInput) (*models.OrgUnit, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("unit name is required: %w", domain.ErrValidation)
	}

	unit := &models.OrgUnit{
		Name:   strings.TrimSpace(input.Name),
		Status: models.UnitStatusActive,
		IsLeaf: true,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.orgRepo.WithTx(tx)

		if input.ParentID != nil {
			parent, err := repo.GetByID(ctx, *input.ParentID)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return fmt.Errorf("parent unit %d: %w", *input.ParentID, domain.ErrNotFound)
				}
				return err
			}

			// Write-path validation: a parent whose stored path disagrees
			// with its level is corrupted and must not gain children.
			if parent.Level != len(AncestorIDs(parent)) {
				return fmt.Errorf("unit %d has inconsistent path data: %w", parent.ID, domain.ErrIntegrity)
			}

			path := parent.SubtreePrefix()
			if len(path) > MaxPathLength {
				return fmt.Errorf("tree too deep under unit %d: %w", parent.ID, domain.ErrValidation)
			}

			unit.ParentID = &parent.ID
			unit.Path = path
			unit.Level = parent.Level + 1

			if err := repo.Create(ctx, unit); err != nil {
				return err
			}

			if parent.IsLeaf {
				return repo.UpdateColumns(ctx, parent.ID, map[string]interface{}{"is_leaf": false})
			}
			return nil
		}

		// Root unit: empty path, level 0
		return repo.Create(ctx, unit)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Created org unit #%d %q (level %d)", unit.ID, unit.Name, unit.Level)
	return unit, nil
}

// UpdateUnitInput represents update unit input
type UpdateUnitInput struct {
	Name   *string `json:"name"`
	Status *string `json:"status"`
}

// UpdateUnit renames or enables/disables a unit. Re-parenting is not
// supported.
func (s *OrgService) UpdateUnit(ctx context.Context, id uint, input *UpdateUnitInput) (*models.OrgUnit, error) {
	unit, err := s.orgRepo.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("unit %d: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, fmt.Errorf("unit name is required: %w", domain.ErrValidation)
		}
		updates["name"] = name
	}
	if input.Status != nil {
		if *input.Status != models.UnitStatusActive && *input.Status != models.UnitStatusDisabled {
			return nil, fmt.Errorf("invalid unit status %q: %w", *input.Status, domain.ErrValidation)
		}
		updates["status"] = *input.Status
	}
	if len(updates) == 0 {
		return unit, nil
	}

	if err := s.orgRepo.UpdateColumns(ctx, id, updates); err != nil {
		return nil, err
	}
	return s.orgRepo.GetByID(ctx, id)
}

// DeleteUnit deletes a unit that has no children and no members. When the
// unit was its parent's only child, the parent becomes a leaf again.
func (s *OrgService) DeleteUnit(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.orgRepo.WithTx(tx)

		unit, err := repo.GetByID(ctx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("unit %d: %w", id, domain.ErrNotFound)
			}
			return err
		}

		children, err := repo.CountChildren(ctx, id)
		if err != nil {
			return err
		}
		if children > 0 {
			return fmt.Errorf("unit %d has %d children: %w", id, children, domain.ErrConflict)
		}

		memberCount, err := s.memberRepo.WithTx(tx).CountByHomeUnit(ctx, id)
		if err != nil {
			return err
		}
		if memberCount > 0 {
			return fmt.Errorf("unit %d still has %d members: %w", id, memberCount, domain.ErrConflict)
		}

		if err := repo.Delete(ctx, id); err != nil {
			return err
		}

		if unit.ParentID != nil {
			siblings, err := repo.CountChildren(ctx, *unit.ParentID)
			if err != nil {
				return err
			}
			if siblings == 0 {
				return repo.UpdateColumns(ctx, *unit.ParentID, map[string]interface{}{"is_leaf": true})
			}
		}
		return nil
	})
}

// GetUnit gets a unit with its aggregate member count (direct count of the
// unit plus the direct counts of every descendant).
func (s *OrgService) GetUnit(ctx context.Context, id uint) (*models.OrgUnitResponse, error) {
	unit, err := s.orgRepo.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("unit %d: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}

	aggregate, err := s.aggregateMemberCount(ctx, unit)
	if err != nil {
		return nil, err
	}

	resp := unit.ToResponse()
	resp.AggregateCount = aggregate
	return resp, nil
}

// aggregateMemberCount sums the stored direct counts of the unit and its
// whole subtree.
func (s *OrgService) aggregateMemberCount(ctx context.Context, unit *models.OrgUnit) (int64, error) {
	descendants, err := s.orgRepo.ListByPathPrefix(ctx, unit.SubtreePrefix())
	if err != nil {
		return 0, err
	}

	ids := make([]uint, 0, len(descendants)+1)
	ids = append(ids, unit.ID)
	for _, d := range descendants {
		ids = append(ids, d.ID)
	}
	return s.orgRepo.SumMemberCounts(ctx, ids)
}

// OrgTreeNode is one node of a materialized display tree
type OrgTreeNode struct {
	*models.OrgUnitResponse
	Children []*OrgTreeNode `json:"children"`
}

// SubtreeResult carries the built tree plus a completeness tag. The walk is
// a tolerant display path: corrupted rows truncate the walk instead of
// failing it, and the result says so.
type SubtreeResult struct {
	Roots    []*OrgTreeNode `json:"roots"`
	Complete bool           `json:"complete"`
	Reason   string         `json:"reason,omitempty"`
}

// GetSubtree materializes the descendant tree under rootID, or the whole
// forest when rootID is 0. The walk is an iterative worklist with a visited
// set: a repeated ID (cycle) or a row whose parent never appears is skipped
// and the result is tagged partial rather than looping or failing.
func (s *OrgService) GetSubtree(ctx context.Context, rootID uint) (*SubtreeResult, error) {
	var roots []*models.OrgUnit
	var pool []*models.OrgUnit
	var err error

	if rootID != 0 {
		root, gerr := s.orgRepo.GetByID(ctx, rootID)
		if gerr != nil {
			if gerr == gorm.ErrRecordNotFound {
				return nil, fmt.Errorf("unit %d: %w", rootID, domain.ErrNotFound)
			}
			return nil, gerr
		}
		roots = []*models.OrgUnit{root}
		pool, err = s.orgRepo.ListByPathPrefix(ctx, root.SubtreePrefix())
		if err != nil {
			return nil, err
		}
		pool = append(pool, root)
	} else {
		pool, err = s.orgRepo.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		roots, err = s.orgRepo.ListRoots(ctx)
		if err != nil {
			return nil, err
		}
	}

	return buildForest(roots, pool), nil
}

// buildForest links the fetched rows into trees. Iterative worklist, no
// recursion: each step pops a node and attaches its children from the
// adjacency map. A node seen twice marks a cycle; rows never reached mark
// orphans. Both tag the result partial.
func buildForest(roots []*models.OrgUnit, pool []*models.OrgUnit) *SubtreeResult {
	children := make(map[uint][]*models.OrgUnit, len(pool))
	for _, u := range pool {
		if u.ParentID != nil {
			children[*u.ParentID] = append(children[*u.ParentID], u)
		}
	}

	nodes := make(map[uint]*OrgTreeNode, len(pool))
	visited := make(map[uint]bool, len(pool))
	result := &SubtreeResult{Complete: true}

	for _, root := range roots {
		rootNode := &OrgTreeNode{OrgUnitResponse: root.ToResponse(), Children: []*OrgTreeNode{}}
		nodes[root.ID] = rootNode
		visited[root.ID] = true
		result.Roots = append(result.Roots, rootNode)

		worklist := []uint{root.ID}
		for len(worklist) > 0 {
			id := worklist[0]
			worklist = worklist[1:]
			parent := nodes[id]

			for _, child := range children[id] {
				if visited[child.ID] {
					// Cycle or duplicate row: truncate here.
					result.Complete = false
					result.Reason = fmt.Sprintf("cycle detected at unit %d", child.ID)
					continue
				}
				visited[child.ID] = true
				node := &OrgTreeNode{OrgUnitResponse: child.ToResponse(), Children: []*OrgTreeNode{}}
				nodes[child.ID] = node
				parent.Children = append(parent.Children, node)
				worklist = append(worklist, child.ID)
			}
		}
	}

	if len(visited) < len(pool) {
		// Rows whose parent chain never reached a requested root.
		result.Complete = false
		if result.Reason == "" {
			result.Reason = fmt.Sprintf("%d unreachable units omitted", len(pool)-len(visited))
		}
	}

	return result
}

// RepairResult reports what a path repair did
type RepairResult struct {
	UnitID   uint `json:"unit_id"`
	Repaired int  `json:"repaired"`
	Degraded bool `json:"degraded"`
}

// RepairPath recomputes the unit's path and level from its parent chain,
// then rewrites every descendant's path below it. Best effort: a broken
// parent chain degrades the unit to a root at the break instead of failing.
func (s *OrgService) RepairPath(ctx context.Context, id uint) (*RepairResult, error) {
	unit, err := s.orgRepo.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("unit %d: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}

	result := &RepairResult{UnitID: id}

	// Walk the parent chain upward collecting ancestor IDs, nearest first.
	var ancestors []uint
	seen := map[uint]bool{unit.ID: true}
	cursor := unit.ParentID
	for cursor != nil {
		if seen[*cursor] {
			result.Degraded = true
			break
		}
		parent, err := s.orgRepo.GetByID(ctx, *cursor)
		if err != nil {
			// Missing parent: treat the chain as ending here.
			result.Degraded = true
			break
		}
		seen[parent.ID] = true
		ancestors = append(ancestors, parent.ID)
		cursor = parent.ParentID
	}

	// Rebuild path root-first.
	var b strings.Builder
	for i := len(ancestors) - 1; i >= 0; i-- {
		b.WriteString(strconv.FormatUint(uint64(ancestors[i]), 10))
		b.WriteString(models.PathDelimiter)
	}
	newPath := b.String()
	newLevel := len(ancestors)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.orgRepo.WithTx(tx)

		if unit.Path != newPath || unit.Level != newLevel {
			if err := repo.UpdateColumns(ctx, unit.ID, map[string]interface{}{
				"path":  newPath,
				"level": newLevel,
			}); err != nil {
				return err
			}
			result.Repaired++
		}
		unit.Path = newPath
		unit.Level = newLevel

		// Fix descendants breadth-first from the now-correct unit.
		worklist := []*models.OrgUnit{unit}
		fixed := map[uint]bool{unit.ID: true}
		for len(worklist) > 0 {
			parent := worklist[0]
			worklist = worklist[1:]

			kids, err := repo.ListChildren(ctx, parent.ID)
			if err != nil {
				return err
			}
			for _, kid := range kids {
				if fixed[kid.ID] {
					result.Degraded = true
					continue
				}
				fixed[kid.ID] = true

				wantPath := parent.SubtreePrefix()
				wantLevel := parent.Level + 1
				if kid.Path != wantPath || kid.Level != wantLevel {
					if err := repo.UpdateColumns(ctx, kid.ID, map[string]interface{}{
						"path":  wantPath,
						"level": wantLevel,
					}); err != nil {
						return err
					}
					result.Repaired++
				}
				kid.Path = wantPath
				kid.Level = wantLevel
				worklist = append(worklist, kid)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Degraded {
		log.Printf("⚠️ Path repair of unit #%d degraded (broken parent chain), %d rows rewritten", id, result.Repaired)
	} else {
		log.Printf("✅ Path repair of unit #%d rewrote %d rows", id, result.Repaired)
	}
	return result, nil
}

// RecomputeMemberCount rewrites the unit's direct member count from the
// members table and returns both the direct and aggregate counts.
func (s *OrgService) RecomputeMemberCount(ctx context.Context, id uint) (direct int64, aggregate int64, err error) {
	unit, err := s.orgRepo.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, 0, fmt.Errorf("unit %d: %w", id, domain.ErrNotFound)
		}
		return 0, 0, err
	}

	if err := s.orgRepo.RecountMembers(ctx, []uint{id}); err != nil {
		return 0, 0, err
	}

	direct, err = s.memberRepo.CountByHomeUnit(ctx, id)
	if err != nil {
		return 0, 0, err
	}

	aggregate, err = s.aggregateMemberCount(ctx, unit)
	if err != nil {
		return 0, 0, err
	}
	return direct, aggregate, nil
}
