/*
Command remlsp is the Language Server Protocol (LSP) server for Remfiles.

# Installation

To install the latest version of remlsp, run:

	go install blake.io/remlint/cmd/remlsp@latest

# Supported Features

remlsp supports the following LSP features:

  - Diagnostics: problems found by remlint, republished on each edit
    and cleared on close
  - Go to Definition: navigate from a task name, such as a dependency,
    to the task's header
  - Document Symbols: an outline of the tasks and variables in a file

# Configuration

remlsp reads the same configuration files as remlint: the global file
~/.config/remlint/config.yaml (or $REMLINT_GLOBAL_CONFIG) and a
.remlint.yaml file in the directory of each open Remfile. Set
diagnostics.enabled to false to silence a project:

	diagnostics:
	  enabled: false

Editors may override it for every document through
workspace/didChangeConfiguration:

	{"settings": {"remfile": {"diagnostics": {"enabled": false}}}}

A document is validated when the editor opens it with the language id
"remfile" or when its base name is listed in match.names, which
defaults to [Remfile].

Logs go to stderr at the level named by log.level.

# Editor Setup

remlsp communicates over stdin/stdout using the LSP protocol.

Using nvim-lspconfig (Neovim 0.5+), add to your init.lua:

	vim.api.nvim_create_autocmd({'BufRead', 'BufNewFile'}, {
		pattern = 'Remfile',
		callback = function()
			vim.lsp.start({
				name = 'remlsp',
				cmd = {'remlsp'},
			})
		end,
	})

Using eglot:

	(add-to-list 'eglot-server-programs '(remfile-mode . ("remlsp")))

# Helix

Add to languages.toml:

	[[language]]
	name = "remfile"
	scope = "source.remfile"
	file-types = [{ glob = "Remfile" }]
	roots = []
	language-servers = ["remlsp"]

	[language-server.remlsp]
	command = "remlsp"
*/
package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"blake.io/remlint"
	"blake.io/remlint/internal/config"
	"blake.io/remlint/internal/logging"
)

// JSON-RPC error codes
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

// LSP SymbolKind values
const (
	symbolFunction = 12
	symbolVariable = 13
)

// Version is overridden at build time via -ldflags.
var Version = "dev"

func main() {
	logLevel := "info"
	if wd, err := os.Getwd(); err == nil {
		if cfg, err := config.Load(wd); err == nil {
			logLevel = cfg.LogLevel
		}
	}
	s := newServer(os.Stdin, os.Stdout, logging.New(os.Stderr, logLevel, "remlsp"))
	if err := s.run(); err != nil {
		var e exitError
		if errors.As(err, &e) {
			os.Exit(e.code)
		}
		fmt.Fprintf(os.Stderr, "remlsp: %v\n", err)
		os.Exit(1)
	}
}

// Server

type server struct {
	r        *bufio.Reader
	w        *bufio.Writer
	log      *log.Logger
	docs     map[string]*document
	shutdown bool

	// configs caches the configuration for each directory holding an
	// open document.
	configs map[string]*config.Config

	// enabled is the client's diagnostics.enabled setting, if it sent one.
	enabled *bool
}

func newServer(r io.Reader, w io.Writer, logger *log.Logger) *server {
	return &server{
		r:       bufio.NewReader(r),
		w:       bufio.NewWriter(w),
		log:     logger,
		docs:    make(map[string]*document),
		configs: make(map[string]*config.Config),
	}
}

type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit %d", e.code) }

func (s *server) run() error {
	for {
		data, err := s.readMessage()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		var msg request
		if err := json.Unmarshal(data, &msg); err != nil {
			s.log.Warn("bad message", "err", err)
			s.sendError(nil, codeParseError, err.Error())
			continue
		}
		s.log.Debug("received", "method", msg.Method)
		if err := s.dispatch(&msg); err != nil {
			return err
		}
	}
}

func (s *server) dispatch(msg *request) error {
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		return nil
	case "shutdown":
		return s.handleShutdown(msg)
	case "exit":
		return s.handleExit()
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/didSave":
		return s.handleDidSave(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	case "textDocument/definition":
		return s.handleDefinition(msg)
	case "textDocument/documentSymbol":
		return s.handleDocumentSymbol(msg)
	case "workspace/didChangeConfiguration":
		return s.handleDidChangeConfiguration(msg)
	case "$/cancelRequest":
		return nil
	default:
		if msg.ID != nil {
			return s.sendError(msg.ID, codeMethodNotFound, fmt.Sprintf("unsupported method %q", msg.Method))
		}
		return nil
	}
}

// Handlers

func (s *server) handleInitialize(msg *request) error {
	return s.reply(msg.ID, map[string]any{
		"capabilities": map[string]any{
			"textDocumentSync": map[string]any{
				"openClose": true,
				"change":    1,
				"save":      map[string]any{"includeText": true},
			},
			"definitionProvider":     true,
			"documentSymbolProvider": true,
		},
		"serverInfo": map[string]any{"name": "remlsp", "version": Version},
	})
}

func (s *server) handleShutdown(msg *request) error {
	s.shutdown = true
	return s.reply(msg.ID, nil)
}

func (s *server) handleExit() error {
	if s.shutdown {
		return exitError{0}
	}
	return exitError{1}
}

func (s *server) handleDidOpen(msg *request) error {
	var p struct {
		TextDocument struct {
			URI        string `json:"uri"`
			LanguageID string `json:"languageId"`
			Text       string `json:"text"`
		} `json:"textDocument"`
	}
	if err := json.Unmarshal(msg.Params, &p); err != nil {
		return nil
	}
	doc := newDocument(p.TextDocument.URI, p.TextDocument.LanguageID, p.TextDocument.Text)
	s.docs[p.TextDocument.URI] = doc
	return s.publishDiagnostics(doc)
}

func (s *server) handleDidChange(msg *request) error {
	var p struct {
		TextDocument   textDocumentIdentifier `json:"textDocument"`
		ContentChanges []struct {
			Text string `json:"text"`
		} `json:"contentChanges"`
	}
	if err := json.Unmarshal(msg.Params, &p); err != nil {
		return nil
	}
	doc := s.docs[p.TextDocument.URI]
	if doc == nil || len(p.ContentChanges) == 0 {
		return nil
	}
	doc.setText(p.ContentChanges[len(p.ContentChanges)-1].Text)
	return s.publishDiagnostics(doc)
}

func (s *server) handleDidSave(msg *request) error {
	var p struct {
		TextDocument textDocumentIdentifier `json:"textDocument"`
		Text         *string                `json:"text"`
	}
	if err := json.Unmarshal(msg.Params, &p); err != nil {
		return nil
	}
	doc := s.docs[p.TextDocument.URI]
	if doc == nil {
		return nil
	}
	if p.Text != nil {
		doc.setText(*p.Text)
	}
	return s.publishDiagnostics(doc)
}

func (s *server) handleDidClose(msg *request) error {
	var p struct {
		TextDocument textDocumentIdentifier `json:"textDocument"`
	}
	if err := json.Unmarshal(msg.Params, &p); err != nil {
		return nil
	}
	if _, ok := s.docs[p.TextDocument.URI]; !ok {
		return nil
	}
	delete(s.docs, p.TextDocument.URI)
	return s.notifyDiagnostics(p.TextDocument.URI, []diagnostic{})
}

func (s *server) handleDidChangeConfiguration(msg *request) error {
	var p struct {
		Settings struct {
			Remfile struct {
				Diagnostics struct {
					Enabled *bool `json:"enabled"`
				} `json:"diagnostics"`
			} `json:"remfile"`
		} `json:"settings"`
	}
	if err := json.Unmarshal(msg.Params, &p); err != nil {
		return nil
	}
	s.enabled = p.Settings.Remfile.Diagnostics.Enabled
	clear(s.configs)
	for _, uri := range slices.Sorted(maps.Keys(s.docs)) {
		if err := s.publishDiagnostics(s.docs[uri]); err != nil {
			return err
		}
	}
	return nil
}

func (s *server) handleDefinition(msg *request) error {
	if msg.ID == nil {
		return nil
	}
	var p struct {
		TextDocument textDocumentIdentifier `json:"textDocument"`
		Position     position               `json:"position"`
	}
	if err := json.Unmarshal(msg.Params, &p); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, err.Error())
	}
	doc := s.docs[p.TextDocument.URI]
	if doc == nil {
		return s.reply(msg.ID, nil)
	}
	name, _, ok := doc.symbolAt(p.Position.Line, p.Position.Character)
	if !ok {
		return s.reply(msg.ID, nil)
	}
	rng, ok := doc.taskHeader(name)
	if !ok {
		return s.reply(msg.ID, nil)
	}
	return s.reply(msg.ID, location{URI: doc.uri, Range: rng.toLSP()})
}

func (s *server) handleDocumentSymbol(msg *request) error {
	if msg.ID == nil {
		return nil
	}
	var p struct {
		TextDocument textDocumentIdentifier `json:"textDocument"`
	}
	if err := json.Unmarshal(msg.Params, &p); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, err.Error())
	}
	syms := []documentSymbol{}
	if doc := s.docs[p.TextDocument.URI]; doc != nil {
		syms = doc.symbols()
	}
	return s.reply(msg.ID, syms)
}

// config returns the configuration for the directory holding doc.
func (s *server) config(doc *document) *config.Config {
	dir := ""
	if doc.path != "" {
		dir = filepath.Dir(doc.path)
	}
	if cfg, ok := s.configs[dir]; ok {
		return cfg
	}
	cfg, err := config.Load(dir)
	if err != nil {
		s.log.Warn("using default configuration", "dir", dir, "err", err)
		cfg = config.Default()
	}
	s.configs[dir] = cfg
	return cfg
}

func (s *server) diagnosticsEnabled(doc *document) bool {
	cfg := s.config(doc)
	if !cfg.IsRemfile(doc.languageID, doc.path) {
		return false
	}
	if s.enabled != nil {
		return *s.enabled
	}
	return cfg.DiagnosticsEnabled
}

func (s *server) publishDiagnostics(doc *document) error {
	diags := []diagnostic{}
	if s.diagnosticsEnabled(doc) {
		for _, d := range doc.diags {
			diags = append(diags, diagnostic{
				Range:    span{d.StartLine, d.StartColumn, d.EndLine, d.EndColumn}.toLSP(),
				Severity: int(d.Severity),
				Source:   "remlint",
				Message:  d.Message,
			})
		}
	}
	s.log.Debug("publish", "uri", doc.uri, "diagnostics", len(diags))
	return s.notifyDiagnostics(doc.uri, diags)
}

func (s *server) notifyDiagnostics(uri string, diags []diagnostic) error {
	return s.notify("textDocument/publishDiagnostics", struct {
		URI         string       `json:"uri"`
		Diagnostics []diagnostic `json:"diagnostics"`
	}{
		URI:         uri,
		Diagnostics: diags,
	})
}

// Protocol I/O

func (s *server) readMessage() ([]byte, error) {
	var contentLen int
	for {
		line, err := s.r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		if k, v, ok := strings.Cut(line, ":"); ok && strings.ToLower(strings.TrimSpace(k)) == "content-length" {
			contentLen, _ = strconv.Atoi(strings.TrimSpace(v))
		}
	}
	if contentLen == 0 {
		return nil, fmt.Errorf("missing Content-Length")
	}
	data := make([]byte, contentLen)
	_, err := io.ReadFull(s.r, data)
	return data, err
}

func (s *server) writeMessage(data []byte) error {
	if _, err := fmt.Fprintf(s.w, "Content-Length: %d\r\n\r\n", len(data)); err != nil {
		return err
	}
	if _, err := s.w.Write(data); err != nil {
		return err
	}
	return s.w.Flush()
}

func (s *server) reply(id json.RawMessage, result any) error {
	data, err := json.Marshal(struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id"`
		Result  any             `json:"result"`
	}{JSONRPC: "2.0", ID: id, Result: result})
	if err != nil {
		return err
	}
	return s.writeMessage(data)
}

func (s *server) sendError(id json.RawMessage, code int, message string) error {
	type rpcError struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	data, err := json.Marshal(struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id"`
		Error   rpcError        `json:"error"`
	}{
		JSONRPC: "2.0",
		ID:      id,
		Error:   rpcError{Code: code, Message: message},
	})
	if err != nil {
		return err
	}
	return s.writeMessage(data)
}

func (s *server) notify(method string, params any) error {
	data, err := json.Marshal(struct {
		JSONRPC string `json:"jsonrpc"`
		Method  string `json:"method"`
		Params  any    `json:"params,omitempty"`
	}{JSONRPC: "2.0", Method: method, Params: params})
	if err != nil {
		return err
	}
	return s.writeMessage(data)
}

// LSP Protocol Types

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type textDocumentIdentifier struct {
	URI string `json:"uri"`
}

type position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type lspRange struct {
	Start position `json:"start"`
	End   position `json:"end"`
}

type location struct {
	URI   string   `json:"uri"`
	Range lspRange `json:"range"`
}

type diagnostic struct {
	Range    lspRange `json:"range"`
	Severity int      `json:"severity"`
	Source   string   `json:"source,omitempty"`
	Message  string   `json:"message"`
}

type documentSymbol struct {
	Name           string   `json:"name"`
	Detail         string   `json:"detail,omitempty"`
	Kind           int      `json:"kind"`
	Range          lspRange `json:"range"`
	SelectionRange lspRange `json:"selectionRange"`
}

// Document

type document struct {
	uri        string
	path       string // file system path, or empty for non-file URIs
	languageID string
	text       string
	src        *remlint.Document
	result     remlint.Result
	diags      []remlint.Diagnostic
}

type span struct{ startLine, startChar, endLine, endChar int }

func (s span) toLSP() lspRange {
	return lspRange{
		Start: position{Line: s.startLine, Character: s.startChar},
		End:   position{Line: s.endLine, Character: s.endChar},
	}
}

func newDocument(uri, languageID, text string) *document {
	d := &document{uri: uri, path: uriPath(uri), languageID: languageID}
	d.setText(text)
	return d
}

func (d *document) setText(text string) {
	d.text = text
	d.parse()
}

func (d *document) parse() {
	d.src = remlint.NewDocument(d.text)
	d.result = remlint.Parse(d.src)
	d.diags = slices.Concat(d.result.Diagnostics, remlint.Check(d.src, d.result))
}

// uriPath returns the file system path named by a file URI.
func uriPath(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return ""
	}
	return filepath.FromSlash(u.Path)
}

// symbolAt returns the task-name word at the given position.
func (d *document) symbolAt(line, char int) (string, span, bool) {
	if line < 0 || line >= len(d.src.Lines) {
		return "", span{}, false
	}
	s := remlint.StripComment(d.src.Lines[line])
	col := 0
	for i := 0; i < len(s); {
		if !remlint.IsTaskName(s[i : i+1]) {
			r, size := utf8.DecodeRuneInString(s[i:])
			col += utf16Len(string(r))
			i += size
			continue
		}
		j := i + 1
		for j < len(s) && remlint.IsTaskName(s[j:j+1]) {
			j++
		}
		end := col + (j - i)
		if char >= col && char < end {
			return s[i:j], span{line, col, line, end}, true
		}
		col, i = end, j
	}
	return "", span{}, false
}

// taskHeader returns the range of name within its task's header.
// In a header, name may carry the "task." prefix.
func (d *document) taskHeader(name string) (span, bool) {
	line, ok := d.result.Tasks[name]
	if !ok {
		name = strings.TrimPrefix(name, "task.")
		if line, ok = d.result.Tasks[name]; !ok {
			return span{}, false
		}
	}
	text := d.src.Lines[line]
	i := strings.Index(text, "task."+name)
	if i < 0 {
		return span{line, 0, line, utf16Len(text)}, true
	}
	start := utf16Len(text[:i+len("task.")])
	return span{line, start, line, start + utf16Len(name)}, true
}

// symbols lists the tasks and then the variables, in declaration order.
func (d *document) symbols() []documentSymbol {
	syms := make([]documentSymbol, 0, len(d.result.TaskOrder)+len(d.result.VarOrder))
	for _, name := range d.result.TaskOrder {
		sel, _ := d.taskHeader(name)
		line := d.result.Tasks[name]
		syms = append(syms, documentSymbol{
			Name:           name,
			Detail:         strings.Join(d.result.Deps[name], " "),
			Kind:           symbolFunction,
			Range:          d.lineSpan(line).toLSP(),
			SelectionRange: sel.toLSP(),
		})
	}
	for _, name := range d.result.VarOrder {
		rng := d.lineSpan(d.result.Vars[name])
		syms = append(syms, documentSymbol{
			Name:           name,
			Kind:           symbolVariable,
			Range:          rng.toLSP(),
			SelectionRange: rng.toLSP(),
		})
	}
	return syms
}

func (d *document) lineSpan(line int) span {
	return span{line, 0, line, utf16Len(d.src.Lines[line])}
}

// Helpers

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if r > 0xFFFF {
			n += 2
		} else {
			n++
		}
	}
	return n
}
