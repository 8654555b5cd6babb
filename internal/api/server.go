package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/indicxlit/internal/dictionary"
	"github.com/samcharles93/indicxlit/internal/inference"
)

// Engine is the part of *inference.Engine the server uses.
type Engine interface {
	SupportedLanguages() []string
	Ready() bool
	HasDictionary(lang string) bool
	DownloadDictionary(ctx context.Context, lang string, progress dictionary.Progress) error
	TransliterateScored(ctx context.Context, word, lang string, count int) ([]inference.ScoredWord, error)
}

type ServerConfig struct {
	Version   string
	Rescoring bool
	// DefaultCount applies when a request omits count.
	DefaultCount int
	// MaxCount bounds count; 0 disables the bound.
	MaxCount int
}

type Server struct {
	engine Engine
	store  *ResultStore
	cfg    ServerConfig
	clock  func() time.Time
}

func NewServer(engine Engine, store *ResultStore, cfg ServerConfig) *Server {
	if store == nil {
		store = NewResultStore(0)
	}
	if cfg.DefaultCount <= 0 {
		cfg.DefaultCount = inference.DefaultCount
	}
	return &Server{
		engine: engine,
		store:  store,
		cfg:    cfg,
		clock:  time.Now,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/v1/status", s.handleStatus)
	e.GET("/v1/languages", s.handleLanguages)

	e.POST("/v1/transliterate", s.handleTransliterate)
	e.GET("/v1/transliterations/:id", s.handleGetTransliteration)
	e.DELETE("/v1/transliterations/:id", s.handleDeleteTransliteration)

	e.GET("/v1/dictionaries/:lang", s.handleDictionaryStatus)
	e.POST("/v1/dictionaries/:lang/download", s.handleDownloadDictionary)
}

func (s *Server) handleStatus(c *echo.Context) error {
	return c.JSON(http.StatusOK, StatusResponse{
		Ready:     s.engine.Ready(),
		Version:   s.cfg.Version,
		Rescoring: s.cfg.Rescoring,
	})
}

func (s *Server) handleLanguages(c *echo.Context) error {
	return c.JSON(http.StatusOK, LanguagesResponse{Languages: s.engine.SupportedLanguages()})
}

func (s *Server) handleTransliterate(c *echo.Context) error {
	req, err := decodeJSON[TransliterateRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, fmt.Sprintf("invalid request body: %v", err))
	}
	if err := s.validate(&req); err != nil {
		return writeEngineError(c, err, "")
	}

	words, err := s.engine.TransliterateScored(c.Request().Context(), req.Word, req.Lang, *req.Count)
	if err != nil {
		return writeEngineError(c, err, "")
	}

	resp := TransliterateResponse{
		ID:        newResultID(),
		Object:    "transliteration",
		CreatedAt: s.clock().Unix(),
		Word:      req.Word,
		Lang:      req.Lang,
		Results:   toEntries(words, req.Scores),
	}
	s.store.Put(resp)
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) validate(req *TransliterateRequest) error {
	req.Word = strings.TrimSpace(req.Word)
	req.Lang = strings.TrimSpace(req.Lang)
	if req.Word == "" {
		return newInvalidRequest("word is required")
	}
	if req.Lang == "" {
		return newInvalidRequest("lang is required")
	}
	if req.Count == nil {
		n := s.cfg.DefaultCount
		req.Count = &n
	}
	if *req.Count <= 0 {
		return newInvalidRequest("count must be positive")
	}
	if s.cfg.MaxCount > 0 && *req.Count > s.cfg.MaxCount {
		return newInvalidRequest(fmt.Sprintf("count must be at most %d", s.cfg.MaxCount))
	}
	return nil
}

func (s *Server) handleGetTransliteration(c *echo.Context) error {
	id := c.Param("id")
	resp, ok := s.store.Get(id)
	if !ok {
		return writeNotFound(c, fmt.Sprintf("transliteration %q not found", id))
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleDeleteTransliteration(c *echo.Context) error {
	id := c.Param("id")
	if !s.store.Delete(id) {
		return writeNotFound(c, fmt.Sprintf("transliteration %q not found", id))
	}
	return c.JSON(http.StatusOK, DeleteResponse{ID: id, Object: "transliteration.deleted", Deleted: true})
}

func (s *Server) handleDictionaryStatus(c *echo.Context) error {
	lang := c.Param("lang")
	return c.JSON(http.StatusOK, DictionaryStatus{Lang: lang, Available: s.engine.HasDictionary(lang)})
}

func (s *Server) handleDownloadDictionary(c *echo.Context) error {
	lang := c.Param("lang")
	if err := s.engine.DownloadDictionary(c.Request().Context(), lang, nil); err != nil {
		return writeEngineError(c, err, "lang")
	}
	return c.JSON(http.StatusOK, DictionaryStatus{Lang: lang, Available: s.engine.HasDictionary(lang)})
}
