// Package idxstore defines the shared types used across the indexed store engine: the
// custom Error and its codes, logging setup, UUIDs, options and encoding helpers.
//
// The engine itself lives in subpackages. hashmap (open addressing) and rbtree (red-black
// tree) index records by key, chain buckets several records under one key, and compactstore
// holds the payloads densely. indexed composes them into record sets and keeps every stored
// index pointing at the right payload as the compact store relocates elements. registry is
// the service layer built on top, surfaced by restapi, console and metrics.
//
// The engine packages take no locks. Callers that share a record set across
// goroutines serialize access themselves, as registry.Service does.
package idxstore
