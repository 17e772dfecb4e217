// Package errredirect checks that HTTP handlers in the router package answer
// client failures through the error route instead of writing 4xx responses
// themselves.
package errredirect

import (
	"go/ast"
	"go/constant"
	"go/types"
	"net/http"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/types/typeutil"
)

// RouterPackage is the name of the package the check applies to.
const RouterPackage = "router"

// Analyzer reports http.Error calls and WriteHeader calls with a constant
// 4xx status inside the router package.
var Analyzer = &analysis.Analyzer{
	Name: "errredirect",
	Doc:  "reports client errors written directly instead of through the error route",
	Run:  run,
}

func run(pass *analysis.Pass) (interface{}, error) {
	if pass.Pkg.Name() != RouterPackage {
		return nil, nil
	}

	for _, file := range pass.Files {
		filename := pass.Fset.File(file.Pos()).Name()
		if isGoBuildCacheFile(filename) || strings.HasSuffix(filename, "_test.go") {
			continue
		}

		ast.Inspect(file, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}

			fn, ok := typeutil.Callee(pass.TypesInfo, call).(*types.Func)
			if !ok {
				return true
			}

			switch {
			case isHTTPError(fn):
				pass.Reportf(call.Pos(), "http.Error in router: client failures must go through the error route")
			case fn.Name() == "WriteHeader" && len(call.Args) == 1 && isClientErrorStatus(pass, call.Args[0]):
				pass.Reportf(call.Pos(), "4xx WriteHeader in router: client failures must go through the error route")
			}

			return true
		})
	}

	return nil, nil
}

func isHTTPError(fn *types.Func) bool {
	return fn.Pkg() != nil && fn.Pkg().Path() == "net/http" && fn.Name() == "Error"
}

func isClientErrorStatus(pass *analysis.Pass, arg ast.Expr) bool {
	tv, ok := pass.TypesInfo.Types[arg]
	if !ok || tv.Value == nil || tv.Value.Kind() != constant.Int {
		return false
	}

	status, exact := constant.Int64Val(tv.Value)

	return exact && status >= http.StatusBadRequest && status < http.StatusInternalServerError
}

func isGoBuildCacheFile(path string) bool {
	path = filepath.ToSlash(path)
	return strings.Contains(path, "/go-build/") || strings.Contains(path, `\go-build\`)
}
