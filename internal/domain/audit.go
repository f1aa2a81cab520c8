package domain

// Audit action constants.
const AuditActionHTTPRequest = "http_request"
