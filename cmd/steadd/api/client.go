package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strings"

	"gitlab.com/NebulousLabs/Sia/crypto"
	"gitlab.com/NebulousLabs/Sia/types"
	"lukechampine.com/stead/ledger"
	"lukechampine.com/stead/stead"
)

// A Client communicates with a steadd server.
type Client struct {
	addr string
	http *http.Client
}

func (c *Client) req(method string, route string, data, resp interface{}) error {
	var body io.Reader
	if data != nil {
		js, err := json.Marshal(data)
		if err != nil {
			return err
		}
		body = bytes.NewReader(js)
	}
	req, err := http.NewRequest(method, fmt.Sprintf("%v%v", c.addr, route), body)
	if err != nil {
		return err
	}
	r, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer io.Copy(ioutil.Discard, r.Body)
	defer r.Body.Close()
	if r.StatusCode != http.StatusOK {
		b, _ := ioutil.ReadAll(r.Body)
		apiErr := new(Error)
		if json.Unmarshal(b, apiErr) != nil || apiErr.Message == "" {
			apiErr = &Error{Message: strings.TrimSpace(string(b))}
		}
		return apiErr
	}
	if resp == nil {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(resp)
}

func (c *Client) get(route string, r interface{}) error     { return c.req("GET", route, nil, r) }
func (c *Client) post(route string, d, r interface{}) error { return c.req("POST", route, d, r) }
func (c *Client) put(route string, d, r interface{}) error  { return c.req("PUT", route, d, r) }

// State returns the fee registry.
func (c *Client) State() (fr stead.FeeRegistry, err error) {
	err = c.get("/state", &fr)
	return
}

// InitializeState creates the fee registry.
func (c *Client) InitializeState(ins stead.InitializeState, auth stead.Auth) (fr stead.FeeRegistry, err error) {
	err = c.post("/state", RequestInitializeState{Instruction: ins, Auth: auth}, &fr)
	return
}

// SetState replaces the fee registry.
func (c *Client) SetState(ins stead.SetState, auth stead.Auth) (fr stead.FeeRegistry, err error) {
	err = c.put("/state", RequestSetState{Instruction: ins, Auth: auth}, &fr)
	return
}

// Exhibition returns the exhibition held by asset.
func (c *Client) Exhibition(asset crypto.Hash) (ex stead.Exhibition, err error) {
	err = c.get("/exhibitions/"+asset.String(), &ex)
	return
}

// Items returns the items consigned to the exhibition held by asset.
func (c *Client) Items(asset crypto.Hash) (items ResponseItems, err error) {
	err = c.get("/exhibitions/"+asset.String()+"/items", &items)
	return
}

// InitializeExhibition opens an exhibition.
func (c *Client) InitializeExhibition(ins stead.InitializeExhibition, auth stead.Auth) (ex stead.Exhibition, err error) {
	err = c.post("/exhibitions", RequestInitializeExhibition{Instruction: ins, Auth: auth}, &ex)
	return
}

// CancelExhibition cancels the exhibition held by asset.
func (c *Client) CancelExhibition(asset crypto.Hash, ins stead.CancelExhibition, auth stead.Auth) (ex stead.Exhibition, err error) {
	err = c.post("/exhibitions/"+asset.String()+"/cancel", RequestCancelExhibition{Instruction: ins, Auth: auth}, &ex)
	return
}

// CloseExhibition deletes the exhibition held by asset.
func (c *Client) CloseExhibition(asset crypto.Hash, ins stead.CloseExhibition, auth stead.Auth) error {
	return c.post("/exhibitions/"+asset.String()+"/close", RequestCloseExhibition{Instruction: ins, Auth: auth}, nil)
}

// Item returns the item at addr.
func (c *Client) Item(addr crypto.Hash) (item stead.ExhibitionItem, err error) {
	err = c.get("/items/"+addr.String(), &item)
	return
}

// DepositToken consigns an item.
func (c *Client) DepositToken(ins stead.DepositToken, auth stead.Auth) (item stead.ExhibitionItem, err error) {
	err = c.post("/items", RequestDepositToken{Instruction: ins, Auth: auth}, &item)
	return
}

// WithdrawToken returns a consigned item to its exhibitor.
func (c *Client) WithdrawToken(ins stead.WithdrawToken, auth stead.Auth) error {
	return c.post("/items/"+ins.Item.String()+"/withdraw", RequestWithdrawToken{Instruction: ins, Auth: auth}, nil)
}

// BuyToken purchases a consigned item.
func (c *Client) BuyToken(ins stead.BuyToken, auth stead.Auth) (receipt stead.SaleReceipt, err error) {
	err = c.post("/items/"+ins.Item.String()+"/buy", RequestBuyToken{Instruction: ins, Auth: auth}, &receipt)
	return
}

// TokenAccount returns the token account at addr.
func (c *Client) TokenAccount(addr crypto.Hash) (ta ledger.TokenAccount, err error) {
	err = c.get("/accounts/"+addr.String(), &ta)
	return
}

// Balance returns the native balance controlled by pk.
func (c *Client) Balance(pk crypto.PublicKey) (bal types.Currency, err error) {
	err = c.get("/balances/"+KeyString(pk), &bal)
	return
}

// Airdrop credits pk with amount. The server must be running in dev mode.
func (c *Client) Airdrop(pk crypto.PublicKey, amount types.Currency) error {
	return c.post("/dev/airdrop", RequestAirdrop{PublicKey: pk, Amount: amount}, nil)
}

// Mint issues amount units of asset to owner, returning the address of the
// owner's token account. The server must be running in dev mode.
func (c *Client) Mint(asset crypto.Hash, owner crypto.PublicKey, amount uint64) (crypto.Hash, error) {
	var resp ResponseMint
	err := c.post("/dev/mint", RequestMint{Asset: asset, Owner: owner, Amount: amount}, &resp)
	return resp.Account, err
}

// NewClient returns a client that communicates with a steadd server listening
// on the specified address.
func NewClient(addr string) *Client {
	if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
		addr = "http://" + addr
	}
	return &Client{
		addr: strings.TrimSuffix(addr, "/"),
		http: http.DefaultClient,
	}
}
