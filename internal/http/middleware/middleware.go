package middleware

import (
	"net/http"
)

// Middleware — стандартный net/http мидлвар; совместим с chi.Router.Use.
type Middleware func(http.Handler) http.Handler

// Chain применяет мидлвары к обработчику в порядке их перечисления.
// nil-мидлвары пропускаются (например, выключенный лимитер).
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] == nil {
			continue
		}
		h = mws[i](h)
	}
	return h
}

// statusWriter запоминает статус и размер ответа для логов
// и для Timeout, которому нужно знать, начат ли ответ.
type statusWriter struct {
	http.ResponseWriter
	status int
	count  int
}

func newStatusWriter(w http.ResponseWriter) *statusWriter {
	if sw, ok := w.(*statusWriter); ok {
		return sw
	}
	return &statusWriter{ResponseWriter: w}
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status != 0 {
		return
	}
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	count, err := w.ResponseWriter.Write(p)
	w.count += count
	return count, err
}

// written — начат ли ответ клиенту.
func (w *statusWriter) written() bool { return w.status != 0 }

// Unwrap открывает исходный writer для http.ResponseController.
func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
