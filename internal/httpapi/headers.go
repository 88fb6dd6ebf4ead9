package httpapi

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"blogd/internal/eventbus"
	"blogd/pkg/types"
)

// Alert headers read by the front end to show notifications.
var (
	alertHeader  = "X-" + eventbus.Namespace + "-alert"
	errorHeader  = "X-" + eventbus.Namespace + "-error"
	paramsHeader = "X-" + eventbus.Namespace + "-params"
)

func setAlert(w http.ResponseWriter, message, param string) {
	w.Header().Set(alertHeader, message)
	w.Header().Set(paramsHeader, param)
}

func setCreatedAlert(w http.ResponseWriter, entity, id string) {
	setAlert(w, eventbus.Namespace+"."+entity+".created", id)
}

func setUpdatedAlert(w http.ResponseWriter, entity, id string) {
	setAlert(w, eventbus.Namespace+"."+entity+".updated", id)
}

func setDeletedAlert(w http.ResponseWriter, entity, id string) {
	setAlert(w, eventbus.Namespace+"."+entity+".deleted", id)
}

func setFailureAlert(w http.ResponseWriter, entity, key string) {
	w.Header().Set(errorHeader, "error."+key)
	w.Header().Set(paramsHeader, entity)
}

// parsePage reads the page and size query parameters.
func parsePage(r *http.Request) (types.Page, error) {
	p := types.Page{Number: 0, Size: defaultPageSize}
	q := r.URL.Query()
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return p, fmt.Errorf("invalid page %q", v)
		}
		p.Number = n
	}
	if v := q.Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return p, fmt.Errorf("invalid size %q", v)
		}
		if n > maxPageSize {
			n = maxPageSize
		}
		p.Size = n
	}
	return p, nil
}

// setPaginationHeaders writes X-Total-Count and an RFC 5988 Link header
// with next, prev, last and first relations.
func setPaginationHeaders[T any](w http.ResponseWriter, res types.PageResult[T], base string, extra url.Values) {
	w.Header().Set("X-Total-Count", strconv.FormatInt(res.Total, 10))
	link := func(page int, rel string) string {
		v := url.Values{}
		for k, vs := range extra {
			v[k] = vs
		}
		v.Set("page", strconv.Itoa(page))
		v.Set("size", strconv.Itoa(res.Page.Size))
		return fmt.Sprintf(`<%s?%s>; rel="%s"`, base, v.Encode(), rel)
	}
	var links []string
	last := res.TotalPages() - 1
	if last < 0 {
		last = 0
	}
	if res.Page.Number < last {
		links = append(links, link(res.Page.Number+1, "next"))
	}
	if res.Page.Number > 0 {
		links = append(links, link(res.Page.Number-1, "prev"))
	}
	links = append(links, link(last, "last"), link(0, "first"))
	w.Header().Set("Link", strings.Join(links, ","))
}
