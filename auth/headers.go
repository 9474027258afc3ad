package auth

// VersionHeader selects the handler version for an inbound delivery and is
// echoed on version-bound outbound calls. Not part of credential
// verification, but grouped here with the other X-Kiket-* delivery headers.
const VersionHeader = "X-Kiket-Event-Version"
