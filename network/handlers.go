package network

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/luca-patrignani/zkpoker/domain/poker"
	"github.com/luca-patrignani/zkpoker/ledger"
	"github.com/luca-patrignani/zkpoker/zk"
	"github.com/pkg/errors"
)

const sessionKey = "session"

// maxKeyBody bounds verification key uploads.
const maxKeyBody = 1 << 20

func sessionParam() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			badRequest(c, errors.Errorf("invalid session id %q", c.Param("id")))
			return
		}
		c.Set(sessionKey, poker.SessionID(id))
		c.Next()
	}
}

func session(c *gin.Context) poker.SessionID {
	return c.MustGet(sessionKey).(poker.SessionID)
}

// reply writes g, or the error that prevented it.
func reply(c *gin.Context, status int, g *poker.GameState, err error) {
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(status, g)
}

func (s *server) start(c *gin.Context) {
	var body startRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	req, err := body.toDomain()
	if err != nil {
		fail(c, err)
		return
	}
	g, err := s.engine.Start(c.Request.Context(), req)
	reply(c, http.StatusCreated, g, err)
}

func (s *server) game(c *gin.Context) {
	g, err := s.engine.Game(c.Request.Context(), session(c))
	reply(c, http.StatusOK, g, err)
}

func (s *server) postBlinds(c *gin.Context) {
	var body playerRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	g, err := s.engine.PostBlinds(c.Request.Context(), session(c), body.Player)
	reply(c, http.StatusOK, g, err)
}

// proven binds a player request that carries one proof.
func proven(c *gin.Context) (string, poker.ProofBundle, bool) {
	var body provenRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return "", poker.ProofBundle{}, false
	}
	b, err := body.Proof.bundle()
	if err != nil {
		fail(c, err)
		return "", poker.ProofBundle{}, false
	}
	return body.Player, b, true
}

func (s *server) commitShuffle(c *gin.Context) {
	player, b, ok := proven(c)
	if !ok {
		return
	}
	g, err := s.engine.CommitShuffle(c.Request.Context(), session(c), player, b)
	reply(c, http.StatusOK, g, err)
}

func (s *server) deal(c *gin.Context) {
	player, b, ok := proven(c)
	if !ok {
		return
	}
	g, err := s.engine.Deal(c.Request.Context(), session(c), player, b)
	reply(c, http.StatusOK, g, err)
}

func (s *server) act(c *gin.Context) {
	var body actionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	a, b, err := body.toDomain()
	if err != nil {
		fail(c, err)
		return
	}
	g, err := s.engine.Act(c.Request.Context(), session(c), body.Player, a, b)
	reply(c, http.StatusOK, g, err)
}

func (s *server) reveal(c *gin.Context) {
	player, b, ok := proven(c)
	if !ok {
		return
	}
	g, err := s.engine.RevealCommunity(c.Request.Context(), session(c), player, b)
	reply(c, http.StatusOK, g, err)
}

func (s *server) showdown(c *gin.Context) {
	player, b, ok := proven(c)
	if !ok {
		return
	}
	g, err := s.engine.RevealWinner(c.Request.Context(), session(c), player, b)
	reply(c, http.StatusOK, g, err)
}

func (s *server) claim(c *gin.Context) {
	var body playerRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	g, amount, err := s.engine.ClaimPot(c.Request.Context(), session(c), body.Player)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, claimResponse{Game: g, Amount: amount})
}

func (s *server) timeout(c *gin.Context) {
	g, err := s.engine.Timeout(c.Request.Context(), session(c))
	reply(c, http.StatusOK, g, err)
}

func (s *server) journal(c *gin.Context) {
	id := session(c)
	j, err := s.engine.Journal(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	pub, err := ledger.PublicHex(s.engine.PublicKey())
	if err != nil {
		fail(c, err)
		return
	}
	resp := journalResponse{Session: id, PublicKey: pub, Valid: true, Blocks: j.Blocks()}
	if err := j.Verify(s.engine.PublicKey()); err != nil {
		resp.Valid = false
		resp.Error = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *server) stats(c *gin.Context) {
	st, err := s.engine.Stats(c.Request.Context(), c.Param("addr"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, statsResponse{PlayerStats: st, WinRate: st.WinRate()})
}

func (s *server) keys(c *gin.Context) {
	c.JSON(http.StatusOK, keysResponse{Installed: s.engine.Registry().Installed()})
}

// installKey accepts a snarkjs verification_key.json, or the binary encoding
// as application/octet-stream.
func (s *server) installKey(c *gin.Context) {
	id := zk.CircuitID(c.Param("circuit"))
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxKeyBody))
	if err != nil {
		badRequest(c, err)
		return
	}
	var vk *zk.VerificationKey
	if strings.HasPrefix(c.ContentType(), "application/octet-stream") {
		vk, err = zk.VerificationKeyFromBytes(raw)
	} else {
		vk, err = zk.ParseSnarkJSVerificationKey(raw)
	}
	if err != nil {
		badRequest(c, errors.Wrap(err, "verification key"))
		return
	}
	if err := s.engine.InstallKey(c.Request.Context(), id, vk); err != nil {
		fail(c, err)
		return
	}
	s.log.Info().Str("circuit", string(id)).Str("request_id", c.GetString(RequestIDHeader)).Msg("verification key uploaded")
	c.JSON(http.StatusCreated, keysResponse{Installed: s.engine.Registry().Installed()})
}
