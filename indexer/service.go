package indexer

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

const defaultPageSize = 20

type Service struct {
	engine     *gin.Engine
	indexer    *ChainIndexer
	listenAddr string
	srv        *http.Server
}

func NewService(listenAddr string, indexer *ChainIndexer) *Service {
	r := gin.Default()
	s := &Service{
		engine:     r,
		indexer:    indexer,
		listenAddr: listenAddr,
	}
	s.engine.POST("/getProposals", s.handleGetProposals)
	s.engine.POST("/getVotes", s.handleGetVotes)
	s.engine.POST("/getDelegations", s.handleGetDelegations)
	return s
}

func (s *Service) Handler() http.Handler {
	return s.engine
}

func (s *Service) Start() error {
	s.srv = &http.Server{Addr: s.listenAddr, Handler: s.engine}
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Service) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func paging(page, pageSize int) (int, int) {
	if page < 0 {
		page = 0
	}
	if pageSize <= 0 || pageSize > 1000 {
		pageSize = defaultPageSize
	}
	return page, pageSize
}

type ProposalInfo struct {
	Proposal   Proposal    `json:"proposal"`
	Votes      []Vote      `json:"votes"`
	Executions []Execution `json:"executions"`
}

type GetProposalsReq struct {
	VoteId   *uint64 `json:"voteId"`
	Creator  string  `json:"creator"`
	Page     int     `json:"page"`
	PageSize int     `json:"pageSize"`
}

type GetProposalsResponse struct {
	Proposals []ProposalInfo `json:"proposals"`
	Total     uint64         `json:"total"`
}

func (s *Service) proposalInfo(p Proposal) (ProposalInfo, error) {
	votes, _, err := s.indexer.getVotes(&p.VoteId, "", 0, 1000)
	if err != nil {
		return ProposalInfo{}, err
	}
	executions, err := s.indexer.getExecutions(p.VoteId)
	if err != nil {
		return ProposalInfo{}, err
	}
	return ProposalInfo{Proposal: p, Votes: votes, Executions: executions}, nil
}

func (s *Service) handleGetProposals(c *gin.Context) {
	var response GetProposalsResponse
	response.Proposals = make([]ProposalInfo, 0)
	var requestData GetProposalsReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if requestData.VoteId != nil {
		p, err := s.indexer.getProposalByVoteId(*requestData.VoteId)
		if gorm.IsRecordNotFoundError(err) {
			c.JSON(http.StatusOK, response)
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		info, err := s.proposalInfo(p)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		response.Proposals = append(response.Proposals, info)
		response.Total = 1
		c.JSON(http.StatusOK, response)
		return
	}

	page, pageSize := paging(requestData.Page, requestData.PageSize)
	proposals, total, err := s.indexer.getProposals(requestData.Creator, page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	response.Total = total
	for _, p := range proposals {
		info, err := s.proposalInfo(p)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		response.Proposals = append(response.Proposals, info)
	}
	c.JSON(http.StatusOK, response)
}

type GetVotesReq struct {
	Proposal *uint64 `json:"proposal"`
	Voter    string  `json:"voter"`
	Page     int     `json:"page"`
	PageSize int     `json:"pageSize"`
}

type GetVotesResponse struct {
	Votes []Vote `json:"votes"`
	Total uint64 `json:"total"`
}

func (s *Service) handleGetVotes(c *gin.Context) {
	var requestData GetVotesReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	page, pageSize := paging(requestData.Page, requestData.PageSize)
	votes, total, err := s.indexer.getVotes(requestData.Proposal, requestData.Voter, page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, GetVotesResponse{Votes: votes, Total: total})
}

type GetDelegationsReq struct {
	Delegate string `json:"delegate"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
}

type GetDelegationsResponse struct {
	Delegations []Delegation `json:"delegations"`
	Total       uint64       `json:"total"`
}

func (s *Service) handleGetDelegations(c *gin.Context) {
	var requestData GetDelegationsReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	page, pageSize := paging(requestData.Page, requestData.PageSize)
	delegations, total, err := s.indexer.getDelegations(requestData.Delegate, page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, GetDelegationsResponse{Delegations: delegations, Total: total})
}
