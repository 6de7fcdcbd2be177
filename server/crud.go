package server

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/etnz/budget"
	"github.com/gin-gonic/gin"
)

// decoder reads the parameters of an add or edit request.
//
// It returns the function applying them to a payload. That function only runs
// once every parameter has been validated, and can still fail on a missing
// referenced id or a business rule. On add it starts from a zero payload.
type decoder[T any] func(p *params, edit bool) func(*T) error

// crud registers add, edit, delete and list for store under /{kind}/.
// name is how a single record is called in messages.
func crud[T any](api *gin.RouterGroup, store *budget.Store[T], name string, decode decoder[T]) {
	g := api.Group("/" + store.Kind())
	g.POST("/add/", addHandler(store, name, decode))
	g.POST("/edit/", editHandler(store, name, decode))
	g.POST("/delete/", deleteHandler(store, name))
	g.GET("/list/", listHandler(store))
}

func addHandler[T any](store *budget.Store[T], name string, decode decoder[T]) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := newParams(c)
		apply := decode(p, false)
		if err := p.err(); err != nil {
			fail(c, err)
			return
		}
		var v T
		if err := apply(&v); err != nil {
			fail(c, err)
			return
		}
		id := store.Add(v)
		success(c, fmt.Sprintf("%s %d has been created", name, id), strconv.FormatInt(id, 10))
	}
}

func editHandler[T any](store *budget.Store[T], name string, decode decoder[T]) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := newParams(c)
		id := p.id("input_id")
		apply := decode(p, true)
		if err := p.err(); err != nil {
			fail(c, err)
			return
		}
		if err := store.Edit(id, apply); err != nil {
			fail(c, err)
			return
		}
		success(c, fmt.Sprintf("%s %d has been modified", name, id), "")
	}
}

func deleteHandler[T any](store *budget.Store[T], name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := newParams(c)
		id := p.id("input_id")
		if err := p.err(); err != nil {
			fail(c, err)
			return
		}
		if err := store.Delete(id); err != nil {
			fail(c, err)
			return
		}
		success(c, fmt.Sprintf("%s %d has been deleted", name, id), "")
	}
}

// listHandler writes one "id:guid:payload" line per record.
func listHandler[T any](store *budget.Store[T]) gin.HandlerFunc {
	return func(c *gin.Context) {
		var sb strings.Builder
		for _, r := range store.Snapshot() {
			sb.WriteString(r.String())
			sb.WriteByte('\n')
		}
		content(c, sb.String())
	}
}
