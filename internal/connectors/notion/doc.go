// Package notion implements the remote source against the Notion REST API.
//
// The connector speaks three endpoints: retrieve database, query database
// and list block children. Responses are returned as loosely-typed raw
// records; all shape interpretation lives in the core. Requests are
// throttled proactively and back off on 429 responses.
package notion
