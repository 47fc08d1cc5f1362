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


package astra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/vecload/core"
	"github.com/poiesic/vecload/storage"
)

const (
	apiPath = "/api/json/v1"

	// DefaultKeyspace is used when no keyspace is configured.
	DefaultKeyspace = "default_keyspace"

	defaultTimeout = 30 * time.Second
)

// Error codes the Data API reports for conditions the storage package models.
var (
	collectionExistsCodes   = []string{"EXISTING_COLLECTION_DIFFERENT_SETTINGS", "COLLECTION_ALREADY_EXISTS", "CANNOT_ADD_EXISTING_COLLECTION"}
	collectionNotFoundCodes = []string{"COLLECTION_NOT_EXIST", "COLLECTION_NOT_FOUND"}
	duplicateCodes          = []string{"DOCUMENT_ALREADY_EXISTS"}
	dimensionCodes          = []string{"VECTOR_SIZE_MISMATCH", "INVALID_VECTOR_DIMENSION"}
)

// Config holds the connection settings for an Astra DB database.
type Config struct {
	// Endpoint is the database API endpoint, e.g.
	// https://<db-id>-<region>.apps.astra.datastax.com
	Endpoint string

	// Token is the application token sent in the Token header.
	Token string

	// Keyspace (namespace) holding the collections.
	// Default: DefaultKeyspace
	Keyspace string

	// HTTPClient overrides the default client. Useful in tests.
	HTTPClient *http.Client
}

// Validate checks that required settings are present and fills defaults.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("%w: astra: endpoint is required", core.ErrConfiguration)
	}
	if c.Token == "" {
		return fmt.Errorf("%w: astra: token is required", core.ErrConfiguration)
	}
	if c.Keyspace == "" {
		c.Keyspace = DefaultKeyspace
	}
	c.Endpoint = strings.TrimSuffix(c.Endpoint, "/")
	return nil
}

// Store implements storage.CollectionStore on the Astra DB Data API.
type Store struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

var _ storage.CollectionStore = (*Store)(nil)

// NewStore creates a Data API client. No request is made until the first
// operation.
func NewStore(config Config) (storage.CollectionStore, error) {
	return newStore(config)
}

func newStore(config Config) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Store{
		config: config,
		client: client,
		logger: slog.Default().With("component", "astra-store"),
	}, nil
}

// Close releases idle connections.
func (s *Store) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// CreateCollection creates a vector-enabled collection. The Data API accepts
// repeated creation with identical settings, so existing names are looked
// up first.
func (s *Store) CreateCollection(ctx context.Context, name string, opts core.CollectionOptions) error {
	if err := core.ValidateCollectionName(name); err != nil {
		return err
	}
	if opts.Dimension <= 0 {
		return fmt.Errorf("%w: collection dimension must be positive, got %d", core.ErrConfiguration, opts.Dimension)
	}

	var existing struct {
		Collections []string `json:"collections"`
	}
	if err := s.command(ctx, "", map[string]any{"findCollections": map[string]any{}}, &existing, nil); err != nil {
		return fmt.Errorf("create collection %q: %w", name, err)
	}
	if slices.Contains(existing.Collections, name) {
		return fmt.Errorf("create collection %q: %w", name, storage.ErrCollectionExists)
	}

	cmd := map[string]any{
		"createCollection": map[string]any{
			"name": name,
			"options": map[string]any{
				"vector": map[string]any{
					"dimension": opts.Dimension,
					"metric":    "cosine",
				},
			},
		},
	}
	if err := s.command(ctx, "", cmd, nil, nil); err != nil {
		return fmt.Errorf("create collection %q: %w", name, err)
	}

	s.logger.Info("created collection", "collection", name, "dimension", opts.Dimension)
	return nil
}

// Collection returns a handle to the named collection.
func (s *Store) Collection(name string) storage.Collection {
	return &Collection{name: name, store: s}
}

type apiError struct {
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode"`
}

type apiResponse struct {
	Status json.RawMessage `json:"status"`
	Data   json.RawMessage `json:"data"`
	Errors []apiError      `json:"errors"`
}

// command posts one Data API command to the keyspace (collection == "") or
// to a collection, decoding the status and data sections when requested.
func (s *Store) command(ctx context.Context, collection string, cmd any, status, data any) error {
	body, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}

	url := s.config.Endpoint + apiPath + "/" + s.config.Keyspace
	if collection != "" {
		url += "/" + collection
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Token", s.config.Token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("astra: http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var decoded apiResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("%w: astra response: %w", storage.ErrSerializationFailed, err)
	}
	if len(decoded.Errors) > 0 {
		return mapErrors(decoded.Errors)
	}
	if status != nil && len(decoded.Status) > 0 {
		if err := json.Unmarshal(decoded.Status, status); err != nil {
			return fmt.Errorf("%w: astra status: %w", storage.ErrSerializationFailed, err)
		}
	}
	if data != nil && len(decoded.Data) > 0 {
		if err := json.Unmarshal(decoded.Data, data); err != nil {
			return fmt.Errorf("%w: astra data: %w", storage.ErrSerializationFailed, err)
		}
	}
	return nil
}

// mapErrors folds Data API errors into one error, classified by the first
// recognised error code.
func mapErrors(apiErrs []apiError) error {
	errs := make([]error, 0, len(apiErrs))
	for _, e := range apiErrs {
		msg := e.Message
		if e.ErrorCode != "" {
			msg = e.ErrorCode + ": " + msg
		}
		errs = append(errs, errors.New(msg))
	}
	joined := errors.Join(errs...)

	for _, e := range apiErrs {
		switch {
		case slices.Contains(collectionExistsCodes, e.ErrorCode):
			return fmt.Errorf("%w: %w", storage.ErrCollectionExists, joined)
		case slices.Contains(collectionNotFoundCodes, e.ErrorCode):
			return fmt.Errorf("%w: %w", storage.ErrCollectionNotFound, joined)
		case slices.Contains(duplicateCodes, e.ErrorCode):
			return fmt.Errorf("%w: %w", storage.ErrDuplicateKey, joined)
		case slices.Contains(dimensionCodes, e.ErrorCode):
			return fmt.Errorf("%w: %w", storage.ErrDimensionMismatch, joined)
		}
	}
	return fmt.Errorf("astra: %w", joined)
}
