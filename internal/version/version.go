package version

// Version is the current version of csvload.
// Can be overridden at build time with -ldflags "-X ...version.Version=..."
var Version = "0.4.0"

// Name is the application name.
const Name = "csvload"

// Description is a short description of the application.
const Description = "Bulk-load CSV files into a database in batches"
