// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/vecload/core"
	"github.com/poiesic/vecload/storage"
)

// ProvisionStatus reports what EnsureCollection did.
type ProvisionStatus int

const (
	// ProvisionCreated means the collection was created by this call.
	ProvisionCreated ProvisionStatus = iota + 1

	// ProvisionAlreadyExists means the collection was already present.
	ProvisionAlreadyExists
)

func (s ProvisionStatus) String() string {
	switch s {
	case ProvisionCreated:
		return "created"
	case ProvisionAlreadyExists:
		return "already exists"
	default:
		return fmt.Sprintf("ProvisionStatus(%d)", int(s))
	}
}

// Provisioner makes sure the destination collection exists before loading.
type Provisioner struct {
	store  storage.CollectionStore
	logger *slog.Logger
}

// NewProvisioner creates a Provisioner. A nil logger means slog.Default().
func NewProvisioner(store storage.CollectionStore, logger *slog.Logger) (*Provisioner, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Provisioner{
		store:  store,
		logger: logger.With("component", "provisioner"),
	}, nil
}

// EnsureCollection creates the named collection with the given vector
// dimension. An existing collection is not an error; it is logged and
// reported as ProvisionAlreadyExists. The dimension of an existing
// collection is not compared.
func (p *Provisioner) EnsureCollection(ctx context.Context, name string, dimension int) (ProvisionStatus, error) {
	if name == "" {
		return 0, fmt.Errorf("%w: collection name is required", core.ErrConfiguration)
	}
	if dimension <= 0 {
		return 0, fmt.Errorf("%w: dimension must be positive, got %d", core.ErrConfiguration, dimension)
	}

	err := p.store.CreateCollection(ctx, name, core.CollectionOptions{Dimension: dimension})
	switch {
	case err == nil:
		p.logger.Info("collection created", "collection", name, "dimension", dimension)
		return ProvisionCreated, nil
	case errors.Is(err, storage.ErrCollectionExists):
		p.logger.Warn("collection already exists, continuing", "collection", name, "err", err)
		return ProvisionAlreadyExists, nil
	default:
		p.logger.Error("failed to provision collection", "collection", name, "err", err)
		return 0, err
	}
}
