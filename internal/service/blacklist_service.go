package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"arbitrage/internal/models"
	"arbitrage/internal/repository"
	"arbitrage/pkg/utils"
)

var (
	ErrBlacklistSymbolEmpty  = errors.New("symbol cannot be empty")
	ErrBlacklistSymbolExists = errors.New("symbol already in blacklist")
	ErrBlacklistNotFound     = errors.New("blacklist entry not found")
)

// normalizeBlacklistSymbol trims surrounding whitespace, uppercases and
// strips separators, then checks the result against the exchange symbol
// shape.
func normalizeBlacklistSymbol(symbol string) (string, error) {
	symbol = utils.NormalizeSymbol(strings.TrimSpace(symbol))
	if symbol == "" {
		return "", ErrBlacklistSymbolEmpty
	}
	if err := utils.ValidateSymbol(symbol); err != nil {
		return "", fmt.Errorf("blacklist: %w", err)
	}
	return symbol, nil
}

// BlacklistService manages the operator-maintained symbol exclusion list.
// The list is informative only — the relationship builder consults it when
// deciding which markets to subscribe to, but nothing here enforces that;
// it's the caller's job to honor it.
type BlacklistService struct {
	repo BlacklistRepositoryInterface
}

func NewBlacklistService(repo BlacklistRepositoryInterface) *BlacklistService {
	return &BlacklistService{repo: repo}
}

func (s *BlacklistService) Add(ctx context.Context, symbol, reason string) (*models.BlacklistEntry, error) {
	symbol, err := normalizeBlacklistSymbol(symbol)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.Exists(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrBlacklistSymbolExists
	}

	entry := &models.BlacklistEntry{Symbol: symbol, Reason: strings.TrimSpace(reason)}
	if err := s.repo.Create(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrBlacklistEntryExists) {
			return nil, ErrBlacklistSymbolExists
		}
		return nil, err
	}
	return entry, nil
}

func (s *BlacklistService) List(ctx context.Context) ([]*models.BlacklistEntry, error) {
	entries, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*models.BlacklistEntry{}
	}
	return entries, nil
}

func (s *BlacklistService) Remove(ctx context.Context, symbol string) error {
	symbol, err := normalizeBlacklistSymbol(symbol)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, symbol); err != nil {
		if errors.Is(err, repository.ErrBlacklistEntryNotFound) {
			return ErrBlacklistNotFound
		}
		return err
	}
	return nil
}

func (s *BlacklistService) IsBlacklisted(ctx context.Context, symbol string) (bool, error) {
	symbol, err := normalizeBlacklistSymbol(symbol)
	if err != nil {
		return false, err
	}
	return s.repo.Exists(ctx, symbol)
}

func (s *BlacklistService) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
