package main

import (
	"encoding/json"
	"io"
	"net/http"
	"reflect"

	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"
	"gitlab.com/NebulousLabs/Sia/crypto"
	"lukechampine.com/stead/cmd/steadd/api"
	"lukechampine.com/stead/stead"
)

func writeJSON(w io.Writer, v interface{}) {
	// encode nil slices as [] instead of null
	if val := reflect.ValueOf(v); val.Kind() == reflect.Slice && val.Len() == 0 {
		w.Write([]byte("[]\n"))
		return
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "\t")
	enc.Encode(v)
}

// errorStatus returns the HTTP status code for a program error.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, stead.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, stead.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, stead.ErrAlreadyInitialized),
		errors.Is(err, stead.ErrInvalidState),
		errors.Is(err, stead.ErrItemsRemaining),
		errors.Is(err, stead.ErrReplayed):
		return http.StatusConflict
	case stead.ErrorCode(err) != "":
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	writeJSON(w, api.Error{
		Code:    stead.ErrorCode(err),
		Message: err.Error(),
	})
}

// respond writes v, or err if it is non-nil.
func respond(w http.ResponseWriter, v interface{}, err error) {
	if err != nil {
		writeError(w, err, errorStatus(err))
		return
	}
	writeJSON(w, v)
}

func decodeRequest(w http.ResponseWriter, req *http.Request, v interface{}) bool {
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		writeError(w, errors.Wrap(err, "could not decode request body"), http.StatusBadRequest)
		return false
	}
	return true
}

func loadHash(w http.ResponseWriter, ps httprouter.Params, name string) (h crypto.Hash, ok bool) {
	if err := h.LoadString(ps.ByName(name)); err != nil {
		writeError(w, errors.Wrapf(err, "invalid %v", name), http.StatusBadRequest)
		return crypto.Hash{}, false
	}
	return h, true
}

// checkRoute rejects instructions whose account does not match the one named
// in the route.
func checkRoute(w http.ResponseWriter, routeAddr, insAddr crypto.Hash) bool {
	if routeAddr != insAddr {
		err := errors.Wrap(stead.ErrInvalidAccount, "instruction does not match route")
		writeError(w, err, errorStatus(err))
		return false
	}
	return true
}

type server struct {
	p *stead.Program
}

func (s *server) stateHandlerGET(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	fr, err := s.p.State()
	respond(w, fr, err)
}

func (s *server) stateHandlerPOST(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	var r api.RequestInitializeState
	if decodeRequest(w, req, &r) {
		fr, err := s.p.InitializeState(r.Instruction, r.Auth)
		respond(w, fr, err)
	}
}

func (s *server) stateHandlerPUT(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	var r api.RequestSetState
	if decodeRequest(w, req, &r) {
		fr, err := s.p.SetState(r.Instruction, r.Auth)
		respond(w, fr, err)
	}
}

func (s *server) exhibitionsHandlerPOST(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	var r api.RequestInitializeExhibition
	if decodeRequest(w, req, &r) {
		ex, err := s.p.InitializeExhibition(r.Instruction, r.Auth)
		respond(w, ex, err)
	}
}

func (s *server) exhibitionsassetHandlerGET(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
	asset, ok := loadHash(w, ps, "asset")
	if !ok {
		return
	}
	ex, err := s.p.Exhibition(stead.ExhibitionAddress(asset))
	respond(w, ex, err)
}

func (s *server) exhibitionsassetitemsHandlerGET(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
	asset, ok := loadHash(w, ps, "asset")
	if !ok {
		return
	}
	items, err := s.p.Items(stead.ExhibitionAddress(asset))
	respond(w, api.ResponseItems(items), err)
}

func (s *server) exhibitionsassetcancelHandler(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
	asset, ok := loadHash(w, ps, "asset")
	var r api.RequestCancelExhibition
	if ok && decodeRequest(w, req, &r) && checkRoute(w, stead.ExhibitionAddress(asset), r.Instruction.Exhibition) {
		ex, err := s.p.CancelExhibition(r.Instruction, r.Auth)
		respond(w, ex, err)
	}
}

func (s *server) exhibitionsassetcloseHandler(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
	asset, ok := loadHash(w, ps, "asset")
	var r api.RequestCloseExhibition
	if ok && decodeRequest(w, req, &r) && checkRoute(w, stead.ExhibitionAddress(asset), r.Instruction.Exhibition) {
		err := s.p.CloseExhibition(r.Instruction, r.Auth)
		respond(w, nil, err)
	}
}

func (s *server) itemsHandlerPOST(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	var r api.RequestDepositToken
	if decodeRequest(w, req, &r) {
		item, err := s.p.DepositToken(r.Instruction, r.Auth)
		respond(w, item, err)
	}
}

func (s *server) itemsaddrHandlerGET(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
	addr, ok := loadHash(w, ps, "addr")
	if !ok {
		return
	}
	item, err := s.p.Item(addr)
	respond(w, item, err)
}

func (s *server) itemsaddrwithdrawHandler(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
	addr, ok := loadHash(w, ps, "addr")
	var r api.RequestWithdrawToken
	if ok && decodeRequest(w, req, &r) && checkRoute(w, addr, r.Instruction.Item) {
		err := s.p.WithdrawToken(r.Instruction, r.Auth)
		respond(w, nil, err)
	}
}

func (s *server) itemsaddrbuyHandler(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
	addr, ok := loadHash(w, ps, "addr")
	var r api.RequestBuyToken
	if ok && decodeRequest(w, req, &r) && checkRoute(w, addr, r.Instruction.Item) {
		receipt, err := s.p.BuyToken(r.Instruction, r.Auth)
		respond(w, receipt, err)
	}
}

func (s *server) accountsaddrHandler(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
	addr, ok := loadHash(w, ps, "addr")
	if !ok {
		return
	}
	ta, err := s.p.TokenAccount(addr)
	respond(w, ta, err)
}

func (s *server) balanceskeyHandler(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
	pk, err := api.ParseKey(ps.ByName("key"))
	if err != nil {
		writeError(w, errors.Wrap(err, "invalid key"), http.StatusBadRequest)
		return
	}
	bal, err := s.p.Balance(pk)
	respond(w, bal, err)
}

func (s *server) devairdropHandler(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	var r api.RequestAirdrop
	if decodeRequest(w, req, &r) {
		respond(w, nil, s.p.Airdrop(r.PublicKey, r.Amount))
	}
}

func (s *server) devmintHandler(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	var r api.RequestMint
	if decodeRequest(w, req, &r) {
		addr, err := s.p.Mint(r.Asset, r.Owner, r.Amount)
		respond(w, api.ResponseMint{Account: addr}, err)
	}
}

// NewServer returns an HTTP handler that serves the stead API. The /dev
// routes, which issue currency and assets from nothing, are only served if
// dev is set.
func NewServer(p *stead.Program, dev bool) http.Handler {
	s := &server{p: p}
	mux := httprouter.New()
	mux.GET("/state", s.stateHandlerGET)
	mux.POST("/state", s.stateHandlerPOST)
	mux.PUT("/state", s.stateHandlerPUT)
	mux.POST("/exhibitions", s.exhibitionsHandlerPOST)
	mux.GET("/exhibitions/:asset", s.exhibitionsassetHandlerGET)
	mux.GET("/exhibitions/:asset/items", s.exhibitionsassetitemsHandlerGET)
	mux.POST("/exhibitions/:asset/cancel", s.exhibitionsassetcancelHandler)
	mux.POST("/exhibitions/:asset/close", s.exhibitionsassetcloseHandler)
	mux.POST("/items", s.itemsHandlerPOST)
	mux.GET("/items/:addr", s.itemsaddrHandlerGET)
	mux.POST("/items/:addr/withdraw", s.itemsaddrwithdrawHandler)
	mux.POST("/items/:addr/buy", s.itemsaddrbuyHandler)
	mux.GET("/accounts/:addr", s.accountsaddrHandler)
	mux.GET("/balances/:key", s.balanceskeyHandler)
	if dev {
		mux.POST("/dev/airdrop", s.devairdropHandler)
		mux.POST("/dev/mint", s.devmintHandler)
	}
	return mux
}
