package core

import (
	"bytes"
	"compress/gzip"
	"crypto/tls"
	"io"
	"log" // Standard log package for goproxy.Logger config
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"adwatch/config"
	"adwatch/database"
	"adwatch/logger"
	"adwatch/models"

	"github.com/andybalholm/brotli"
	"github.com/elazarl/goproxy"
	"github.com/google/uuid"
)

const (
	responsePreviewBytes = 512
	rewriteLogKeep       = 500
)

var (
	ruleMu      sync.RWMutex
	activeRules []models.HeaderRule

	pruneMu      sync.Mutex
	pruneCounter int
)

// proxyRequestContextData carries the rewrite log entries between the request
// and response handlers via ctx.UserData.
type proxyRequestContextData struct {
	Entries []*models.RewriteLogEntry
}

// ReloadRules refreshes the in-memory rule set from the database. The proxy
// calls it at startup; the API calls it after every rule change.
func ReloadRules() error {
	rules, err := database.GetHeaderRules(true)
	if err != nil {
		logger.ProxyError("ReloadRules: failed to load header rules: %v", err)
		return err
	}
	ruleMu.Lock()
	activeRules = rules
	ruleMu.Unlock()
	logger.ProxyInfo("Loaded %d enabled header rule(s).", len(rules))
	return nil
}

// resourceTypeOf classifies a request the way the browser rule engine would.
// Sec-Fetch-Dest is authoritative when present; older clients fall back to
// X-Requested-With and Accept heuristics.
func resourceTypeOf(r *http.Request) string {
	switch strings.ToLower(r.Header.Get("Sec-Fetch-Dest")) {
	case "document":
		return models.ResourceTypeMainFrame
	case "iframe", "frame":
		return models.ResourceTypeSubFrame
	case "empty":
		return models.ResourceTypeXMLHTTPRequest
	}

	if strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest") {
		return models.ResourceTypeXMLHTTPRequest
	}

	accept := r.Header.Get("Accept")
	if strings.HasPrefix(accept, "text/html") {
		return models.ResourceTypeMainFrame
	}
	if strings.HasPrefix(accept, "application/json") {
		return models.ResourceTypeXMLHTTPRequest
	}
	return models.ResourceTypeOther
}

// applyHeaderRules mutates the request per the active rules and returns a log
// entry per applied rule. Rules arrive priority-descending from the store;
// the first rule to claim a header wins.
func applyHeaderRules(r *http.Request, resourceType string) []*models.RewriteLogEntry {
	ruleMu.RLock()
	rules := activeRules
	ruleMu.RUnlock()

	var entries []*models.RewriteLogEntry
	claimed := make(map[string]bool)

	requestURL := r.URL.String()
	for i := range rules {
		rule := &rules[i]
		if !strings.Contains(requestURL, rule.URLFilter) {
			continue
		}
		if !rule.MatchesResourceType(resourceType) {
			continue
		}
		headerKey := http.CanonicalHeaderKey(rule.HeaderName)
		if claimed[headerKey] {
			continue
		}
		claimed[headerKey] = true

		r.Header.Set(rule.HeaderName, rule.HeaderValue)
		entries = append(entries, &models.RewriteLogEntry{
			ID:            uuid.New().String(),
			RuleID:        rule.ID,
			Timestamp:     time.Now(),
			RequestMethod: r.Method,
			RequestURL:    requestURL,
			ResourceType:  resourceType,
			HeaderName:    headerKey,
			HeaderValue:   rule.HeaderValue,
		})
	}
	return entries
}

// StartRewriteProxy runs the MITM proxy that applies the declarative header
// rules to live traffic. Blocks until the listener fails.
func StartRewriteProxy(port string, caCertPath string, caKeyPath string) error {
	if err := loadCA(caCertPath, caKeyPath); err != nil {
		return err
	}
	setGoproxyCA(&tls.Certificate{
		Certificate: [][]byte{caCert.Raw},
		PrivateKey:  caKey,
		Leaf:        caCert,
	})

	if err := ReloadRules(); err != nil {
		logger.ProxyError("StartRewriteProxy: continuing with empty rule set: %v", err)
	}

	proxy := goproxy.NewProxyHttpServer()
	proxy.Logger = log.New(io.Discard, "", 0)
	if config.AppConfig.Proxy.SkipTLSVerify {
		logger.ProxyError("TLS certificate verification for outgoing requests is DISABLED.")
		proxy.Tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	proxy.OnRequest().HandleConnect(goproxy.FuncHttpsHandler(func(host string, ctx *goproxy.ProxyCtx) (*goproxy.ConnectAction, string) {
		logger.ProxyDebug("HandleConnect for session %d, host %s", ctx.Session, host)
		return &goproxy.ConnectAction{Action: goproxy.ConnectMitm, TLSConfig: goproxy.TLSConfigFromCA(&goproxy.GoproxyCa)}, host
	}))

	proxy.OnRequest().DoFunc(
		func(r *http.Request, ctx *goproxy.ProxyCtx) (*http.Request, *http.Response) {
			resourceType := resourceTypeOf(r)
			entries := applyHeaderRules(r, resourceType)
			if len(entries) == 0 {
				logger.ProxyDebug("REQ: %s %s (%s) - no rule matched.", r.Method, r.URL.String(), resourceType)
				return r, nil
			}

			for _, entry := range entries {
				logger.ProxyInfo("REQ: %s %s (%s) - rule %d set %s.", r.Method, entry.RequestURL, resourceType, entry.RuleID, entry.HeaderName)
				if err := database.InsertRewriteLogEntry(entry); err != nil {
					logger.ProxyError("REQ: failed to log rewrite for %s: %v", entry.RequestURL, err)
				}
			}
			maybePruneRewriteLog()

			ctx.UserData = &proxyRequestContextData{Entries: entries}
			return r, nil
		})

	proxy.OnResponse().DoFunc(
		func(resp *http.Response, ctx *goproxy.ProxyCtx) *http.Response {
			pCtxData, ok := ctx.UserData.(*proxyRequestContextData)
			if !ok || pCtxData == nil || len(pCtxData.Entries) == 0 {
				return resp
			}
			if resp == nil {
				logger.ProxyError("RESP: Nil response for %s %s", ctx.Req.Method, ctx.Req.URL.String())
				return resp
			}

			respBodyBytes, errReadResp := io.ReadAll(resp.Body)
			if errReadResp != nil {
				logger.ProxyError("RESP: Error reading response body for %s %s: %v", ctx.Req.Method, ctx.Req.URL.String(), errReadResp)
			}
			resp.Body.Close()
			resp.Body = io.NopCloser(bytes.NewBuffer(respBodyBytes))

			contentType := resp.Header.Get("Content-Type")
			preview := responsePreview(respBodyBytes, resp.Header.Get("Content-Encoding"), contentType)

			for _, entry := range pCtxData.Entries {
				if err := database.UpdateRewriteLogResponse(entry.ID, resp.StatusCode, contentType, preview); err != nil {
					logger.ProxyError("RESP: failed to update rewrite log entry %s: %v", entry.ID, err)
				}
			}
			logger.ProxyInfo("RESP: %d %s for %s %s (Size: %d)", resp.StatusCode, contentType, ctx.Req.Method, ctx.Req.URL.String(), len(respBodyBytes))
			return resp
		})

	logger.ProxyInfo("Rewrite proxy server starting on :%s", port)
	return http.ListenAndServe(":"+port, proxy)
}

// responsePreview returns a short, decoded, printable slice of the body for
// the rewrite log. Non-textual content yields an empty preview.
func responsePreview(body []byte, contentEncoding, contentType string) string {
	if len(body) == 0 || !isTextualContentType(contentType) {
		return ""
	}

	var reader io.Reader = bytes.NewReader(body)
	switch strings.ToLower(contentEncoding) {
	case "br":
		reader = brotli.NewReader(reader)
	case "gzip":
		gzReader, err := gzip.NewReader(reader)
		if err != nil {
			logger.ProxyDebug("responsePreview: gzip reader failed: %v", err)
			return ""
		}
		defer gzReader.Close()
		reader = gzReader
	}

	decoded, err := io.ReadAll(io.LimitReader(reader, responsePreviewBytes))
	if err != nil && len(decoded) == 0 {
		logger.ProxyDebug("responsePreview: decode failed: %v", err)
		return ""
	}
	for !utf8.Valid(decoded) && len(decoded) > 0 {
		decoded = decoded[:len(decoded)-1]
	}
	return string(decoded)
}

func isTextualContentType(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/") ||
		strings.Contains(ct, "application/json") ||
		strings.Contains(ct, "application/xml") ||
		strings.Contains(ct, "application/javascript")
}

// maybePruneRewriteLog trims the rewrite log once every 100 inserts.
func maybePruneRewriteLog() {
	pruneMu.Lock()
	pruneCounter++
	shouldPrune := pruneCounter%100 == 0
	pruneMu.Unlock()
	if !shouldPrune {
		return
	}
	if deleted, err := database.PruneRewriteLog(rewriteLogKeep); err != nil {
		logger.ProxyError("Rewrite log prune failed: %v", err)
	} else if deleted > 0 {
		logger.ProxyDebug("Pruned %d rewrite log entries.", deleted)
	}
}
