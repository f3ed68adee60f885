// Package common contains shared constants and sentinel errors used across
// ChorSync components.
package common

// AccessTokenHeaderName is the HTTP header used to carry the access token on
// outbound requests.
const AccessTokenHeaderName = "Authorization"

// PDFContentType is the content type the PDF proxy streams through.
const PDFContentType = "application/pdf"
