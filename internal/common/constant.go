package common

// SessionCookieName is the cookie carrying the session id for browser clients.
const SessionCookieName = "session"

// RequestIDHeaderName is echoed on every HTTP response.
const RequestIDHeaderName = "X-Request-ID"

// DashboardHistoryLimit is how many recent deposits the dashboard shows.
const DashboardHistoryLimit = 10
