package types

// Version is the canonical project version.
// The CLI, the stream container codec, and the export record layout share
// this version per the lockstep versioning policy.
const Version = "0.3.0"
