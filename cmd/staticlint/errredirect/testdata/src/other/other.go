package other

import "net/http"

func rejectGzip(w http.ResponseWriter) {
	w.WriteHeader(http.StatusBadRequest)
}

func failDirectly(w http.ResponseWriter) {
	http.Error(w, "bad input", http.StatusBadRequest)
}
