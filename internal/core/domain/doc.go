// Package domain contains the core types of the knowledge base:
// chunks, vector records, query results, reports, and the error
// taxonomy shared by all services and adapters.
package domain
