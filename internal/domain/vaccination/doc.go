// Package vaccination contains the Vaccination bounded context.
// It models per-country vaccination time series and vaccine approvals.
//
// Key concepts:
//   - Country: one of the catalog entries the dashboard can display
//   - Series: chronological observations of new vaccinations per million
//   - Approvals: vaccines approved per country, keyed by ISO code
//   - Source: port for fetching the raw data from a remote provider
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package vaccination
