package syncro

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Tiliavir/syncro-import/internal/model"
)

// Syncro is inconsistent about field names and shapes across endpoints and
// account versions. Everything loose is normalized here, once.

type object map[string]any

func decodeObject(raw []byte) (object, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var o object
	if err := dec.Decode(&o); err != nil {
		return nil, err
	}
	return o, nil
}

func decodeAny(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	return ""
}

func integer(v any) (int64, bool) {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, true
		}
		if f, err := x.Float64(); err == nil {
			return int64(f), true
		}
	case float64:
		return int64(x), true
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

// first returns the first non-empty string among keys.
func (o object) first(keys ...string) string {
	for _, k := range keys {
		if s := text(o[k]); s != "" {
			return s
		}
	}
	return ""
}

func (o object) id() int64 {
	n, _ := integer(o["id"])
	return n
}

func (o object) objects(key string) []object {
	list, _ := o[key].([]any)
	out := make([]object, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, object(m))
		}
	}
	return out
}

// TimerRecordFrom normalizes a raw timer entry.
func TimerRecordFrom(raw []byte) (model.TimerRecord, error) {
	o, err := decodeObject(raw)
	if err != nil {
		return model.TimerRecord{}, fmt.Errorf("decoding timer entry: %w", err)
	}
	return timerRecord(o), nil
}

func timerRecord(o object) model.TimerRecord {
	rec := model.TimerRecord{
		ID:    o.id(),
		Notes: o.first("notes", "body", "description", "comment", "entry"),
		Start: o.first("start_at", "start_time", "created_at", "timer_start", "created"),
	}

	rec.TechName = o.first("tech", "user_name")
	switch u := o["user"].(type) {
	case map[string]any:
		user := object(u)
		if rec.TechName == "" {
			rec.TechName = user.first("full_name", "name", "email")
		}
		if id := user.id(); id != 0 {
			rec.TechID = strconv.FormatInt(id, 10)
		}
	case string:
		if rec.TechName == "" {
			rec.TechName = strings.TrimSpace(u)
		}
	case json.Number:
		rec.TechID = u.String()
	}
	if rec.TechID == "" {
		rec.TechID = o.first("user_id")
	}
	return rec
}

// techFrom accepts both [id, "name"] pairs and user objects.
func techFrom(v any) (model.Tech, bool) {
	switch x := v.(type) {
	case []any:
		if len(x) < 2 {
			return model.Tech{}, false
		}
		id, ok := integer(x[0])
		if !ok {
			return model.Tech{}, false
		}
		return model.Tech{ID: id, Name: text(x[1])}, true
	case map[string]any:
		o := object(x)
		id := o.id()
		if id == 0 {
			return model.Tech{}, false
		}
		return model.Tech{ID: id, Name: o.first("full_name", "name", "email")}, true
	}
	return model.Tech{}, false
}

func ticketRef(o object) model.TicketRef {
	ref := model.TicketRef{ID: o.id(), Number: o.first("number")}
	for _, c := range o.objects("comments") {
		ref.Comments = append(ref.Comments, model.Comment{
			Subject:   c.first("subject"),
			Body:      text(c["body"]),
			CreatedAt: c.first("created_at"),
		})
	}
	return ref
}

func invoiceRef(o object) model.InvoiceRef {
	return model.InvoiceRef{ID: o.id(), Number: o.first("number")}
}

func customer(o object) model.Customer {
	return model.Customer{ID: o.id(), BusinessName: o.first("business_name")}
}

func contact(o object) model.Contact {
	cid, _ := integer(o["customer_id"])
	return model.Contact{ID: o.id(), CustomerID: cid, Name: o.first("name")}
}

func product(o object) model.Product {
	archived, _ := o["archived"].(bool)
	disabled, _ := o["disabled"].(bool)
	return model.Product{ID: o.id(), Name: o.first("name"), Archived: archived || disabled}
}

// names accepts a list of names or a list of {name: ...} objects.
func names(v any) []string {
	list, _ := v.([]any)
	out := make([]string, 0, len(list))
	for _, item := range list {
		var s string
		switch x := item.(type) {
		case map[string]any:
			s = object(x).first("name", "label")
		default:
			s = text(x)
		}
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
