package router

import "net/http"

func failDirectly(w http.ResponseWriter) {
	http.Error(w, "bad input", http.StatusBadRequest) // want "http.Error in router"
}

func writeNotFound(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNotFound) // want "4xx WriteHeader in router"
}

func writeLiteral(w http.ResponseWriter) {
	w.WriteHeader(400) // want "4xx WriteHeader in router"
}

func writeInternal(w http.ResponseWriter) {
	w.WriteHeader(http.StatusInternalServerError)
}

func writeComputed(w http.ResponseWriter, statusCode int) {
	w.WriteHeader(statusCode)
}

func redirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/error?status_code=400", http.StatusFound)
}
