// Package astra implements storage.CollectionStore on the Astra DB Data API.
//
// Every operation is one JSON command POSTed to
// {endpoint}/api/json/v1/{keyspace} (collection management) or
// {endpoint}/api/json/v1/{keyspace}/{collection} (documents), authenticated
// with the Token header. Entries are stored as documents with the vector in
// the reserved $vector field:
//
//	{"_id": "...", "document_id": "p1", "sequence": 1, "$vector": [...],
//	 "info": {...}, "description": "chunk text", "inserted_at": "..."}
//
// Data API error codes for existing collections, missing collections,
// duplicate ids and vector size mismatches are mapped to the storage
// package's sentinel errors.
package astra
