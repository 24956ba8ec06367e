// Package catalog maps free-text questions to course topics and to the
// reference pages that describe them.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// TopicOther is the tag used when no keyword matches.
const TopicOther = "other"

// ErrInvalidTable is returned when a topic table fails validation.
var ErrInvalidTable = errors.New("catalog: invalid topic table")

// Entry binds a topic to its keywords and reference pages.
type Entry struct {
	Topic    string   `json:"topic"`
	Keywords []string `json:"keywords"`
	Locators []string `json:"locators"`
}

// Table is an ordered list of entries consulted first-match-wins. Order
// matters when a question mentions more than one topic.
type Table struct {
	Entries []Entry  `json:"entries"`
	Default []string `json:"default"`
}

// Selection is the classifier's answer for one question.
type Selection struct {
	Topic    string
	Locators []string
}

// Matched reports whether a keyword matched.
func (s Selection) Matched() bool {
	return s.Topic != TopicOther
}

// Classifier selects reference pages for a question.
type Classifier struct {
	table Table
}

// New creates a classifier over a validated copy of table.
func New(table Table) (*Classifier, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{table: table.normalized()}, nil
}

// Classify lowercases text and returns the locators of the first entry with
// a keyword contained in it, or the default locators tagged TopicOther.
// Accented and unaccented spellings are distinct keywords.
func (c *Classifier) Classify(text string) Selection {
	lower := strings.ToLower(text)
	for _, e := range c.table.Entries {
		for _, kw := range e.Keywords {
			if strings.Contains(lower, kw) {
				return Selection{Topic: e.Topic, Locators: clone(e.Locators)}
			}
		}
	}
	return Selection{Topic: TopicOther, Locators: clone(c.table.Default)}
}

// Validate checks every entry has a topic, keywords and at least one locator,
// and that there is a default set.
func (t Table) Validate() error {
	if len(t.Default) == 0 {
		return fmt.Errorf("%w: empty default locators", ErrInvalidTable)
	}
	seen := make(map[string]bool, len(t.Entries))
	for i, e := range t.Entries {
		switch {
		case strings.TrimSpace(e.Topic) == "":
			return fmt.Errorf("%w: entry %d has no topic", ErrInvalidTable, i)
		case e.Topic == TopicOther:
			return fmt.Errorf("%w: topic %q is reserved", ErrInvalidTable, TopicOther)
		case seen[e.Topic]:
			return fmt.Errorf("%w: duplicate topic %q", ErrInvalidTable, e.Topic)
		case len(e.Keywords) == 0:
			return fmt.Errorf("%w: topic %q has no keywords", ErrInvalidTable, e.Topic)
		case len(e.Locators) == 0:
			return fmt.Errorf("%w: topic %q has no locators", ErrInvalidTable, e.Topic)
		}
		for _, kw := range e.Keywords {
			if strings.TrimSpace(kw) == "" {
				return fmt.Errorf("%w: topic %q has a blank keyword", ErrInvalidTable, e.Topic)
			}
		}
		seen[e.Topic] = true
	}
	return nil
}

func (t Table) normalized() Table {
	out := Table{Default: clone(t.Default), Entries: make([]Entry, len(t.Entries))}
	for i, e := range t.Entries {
		kws := make([]string, len(e.Keywords))
		for j, kw := range e.Keywords {
			kws[j] = strings.ToLower(strings.TrimSpace(kw))
		}
		out.Entries[i] = Entry{Topic: e.Topic, Keywords: kws, Locators: clone(e.Locators)}
	}
	return out
}

// LoadTable reads a JSON topic table from path.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("failed to read topic table: %w", err)
	}

	var t Table
	if err := json.Unmarshal(data, &t); err != nil {
		return Table{}, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	if err := t.Validate(); err != nil {
		return Table{}, err
	}
	return t, nil
}

func clone(s []string) []string {
	return append([]string(nil), s...)
}
