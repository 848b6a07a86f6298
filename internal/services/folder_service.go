package services

import (
	"context"
	"fmt"

	"github.com/glopmts/my-finance-sub000/internal/core"
)

// FolderStore persists recurring folders and their transactions.
type FolderStore interface {
	CreateFolder(ctx context.Context, f core.RecurringFolder) (core.RecurringFolder, error)
	GetFolder(ctx context.Context, id string) (core.RecurringFolder, error)
	ListFolders(ctx context.Context, userID string) ([]core.RecurringFolder, error)
	ListFolderTransactions(ctx context.Context, folderID string) ([]core.Transaction, error)
}

// FolderService builds month-filtered views over recurring folders.
type FolderService struct {
	folders FolderStore
}

func NewFolderService(folders FolderStore) *FolderService {
	return &FolderService{folders: folders}
}

// Create validates and stores a new folder.
func (s *FolderService) Create(ctx context.Context, f core.RecurringFolder) (core.RecurringFolder, error) {
	if err := f.Validate(); err != nil {
		return core.RecurringFolder{}, err
	}
	created, err := s.folders.CreateFolder(ctx, f)
	if err != nil {
		return core.RecurringFolder{}, fmt.Errorf("create folder: %w", err)
	}
	return created, nil
}

// List returns the user's folders without their transactions loaded.
func (s *FolderService) List(ctx context.Context, userID string) ([]core.RecurringFolder, error) {
	if userID == "" {
		return nil, core.ErrEmptyUserID
	}
	folders, err := s.folders.ListFolders(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	return folders, nil
}

// Overview returns each folder with its transactions filtered by the month
// key, the filtered amount, and the months the folder has data for.
func (s *FolderService) Overview(ctx context.Context, userID string, key core.MonthKey) ([]core.FolderView, error) {
	if userID == "" {
		return nil, core.ErrEmptyUserID
	}

	folders, err := s.folders.ListFolders(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}

	views := make([]core.FolderView, 0, len(folders))
	for _, folder := range folders {
		view, err := s.loadView(ctx, folder, key)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// FolderOverview returns the month-filtered view of a single folder. The
// folder must belong to the user.
func (s *FolderService) FolderOverview(ctx context.Context, userID, folderID string, key core.MonthKey) (core.FolderView, error) {
	if userID == "" {
		return core.FolderView{}, core.ErrEmptyUserID
	}

	folder, err := s.folders.GetFolder(ctx, folderID)
	if err != nil {
		return core.FolderView{}, fmt.Errorf("get folder %s: %w", folderID, err)
	}
	if folder.UserID != userID {
		return core.FolderView{}, core.ErrFolderNotOwned
	}
	return s.loadView(ctx, folder, key)
}

func (s *FolderService) loadView(ctx context.Context, folder core.RecurringFolder, key core.MonthKey) (core.FolderView, error) {
	txs, err := s.folders.ListFolderTransactions(ctx, folder.ID)
	if err != nil {
		return core.FolderView{}, fmt.Errorf("list folder transactions %s: %w", folder.ID, err)
	}
	folder.Transactions = txs
	return core.NewFolderView(folder, key)
}
