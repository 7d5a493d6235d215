package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

// Debug echoes the request plus build information, for diagnosing
// proxies and deployments.
func Debug(repoURL, sha1ver, buildtime string) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		v := mux.Vars(r)
		a := []string{fmt.Sprintf("url: %s %s", r.Method, r.RequestURI)}

		a = append(a, "Headers:")
		for k, vv := range r.Header {
			switch len(vv) {
			case 0:
				a = append(a, "  "+k)
			case 1:
				a = append(a, fmt.Sprintf("  %s: %v", k, vv[0]))
			default:
				a = append(a, "  "+k+":")
				for _, v2 := range vv {
					a = append(a, "    "+v2)
				}
			}
		}

		a = append(a, "")
		a = append(a, fmt.Sprintf("ver: %s/commit/%s", repoURL, sha1ver))
		a = append(a, fmt.Sprintf("built on: %s", buildtime))
		a = append(a, fmt.Sprintf("api version called: %s", v["apiVersion"]))

		servePlainText(rw, strings.Join(a, "\n"))
	})
}
