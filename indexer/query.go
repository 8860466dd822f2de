package indexer

func (c *ChainIndexer) getProposals(creator string, page int, pageSize int) ([]Proposal, uint64, error) {
	proposals := make([]Proposal, 0)
	q := c.db.Model(&Proposal{})
	if creator != "" {
		q = q.Where("creator = ?", creator)
	}
	var total uint64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("vote_id desc").Offset(page * pageSize).Limit(pageSize).Find(&proposals).Error
	if err != nil {
		return nil, 0, err
	}
	return proposals, total, nil
}

func (c *ChainIndexer) getProposalByVoteId(id uint64) (Proposal, error) {
	var proposal Proposal
	err := c.db.Where("vote_id = ?", id).First(&proposal).Error
	if err != nil {
		return Proposal{}, err
	}
	return proposal, nil
}

func (c *ChainIndexer) getVotes(proposal *uint64, voter string, page int, pageSize int) ([]Vote, uint64, error) {
	votes := make([]Vote, 0)
	q := c.db.Model(&Vote{}).Where("removed = ?", false)
	if proposal != nil {
		q = q.Where("proposal = ?", *proposal)
	}
	if voter != "" {
		q = q.Where("voter = ?", voter)
	}
	var total uint64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("height desc").Offset(page * pageSize).Limit(pageSize).Find(&votes).Error
	if err != nil {
		return nil, 0, err
	}
	return votes, total, nil
}

func (c *ChainIndexer) getDelegations(delegate string, page int, pageSize int) ([]Delegation, uint64, error) {
	delegations := make([]Delegation, 0)
	q := c.db.Model(&Delegation{})
	if delegate != "" {
		q = q.Where("delegate = ?", delegate)
	}
	var total uint64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("height desc").Offset(page * pageSize).Limit(pageSize).Find(&delegations).Error
	if err != nil {
		return nil, 0, err
	}
	return delegations, total, nil
}

func (c *ChainIndexer) getExecutions(proposal uint64) ([]Execution, error) {
	executions := make([]Execution, 0)
	err := c.db.Where("proposal = ?", proposal).Order("height").Find(&executions).Error
	if err != nil {
		return nil, err
	}
	return executions, nil
}
