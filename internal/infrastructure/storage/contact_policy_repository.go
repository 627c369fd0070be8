package storage

import (
	"database/sql"
	"time"

	domainAgent "github.com/petersenmatthew/MEI/internal/domain/agent"
)

// 确保 ContactPolicyRepositoryImpl 实现了接口
var _ domainAgent.ContactPolicyRepository = (*ContactPolicyRepositoryImpl)(nil)

// ContactPolicyRepositoryImpl 联系人策略仓储实现
type ContactPolicyRepositoryImpl struct {
	db *sql.DB
}

// NewContactPolicyRepository 创建联系人策略仓储实例
func NewContactPolicyRepository(db *sql.DB) domainAgent.ContactPolicyRepository {
	return &ContactPolicyRepositoryImpl{db: db}
}

// Get 查询联系人策略
func (r *ContactPolicyRepositoryImpl) Get(contactID string) (domainAgent.ContactPolicy, bool, error) {
	var policy string
	err := r.db.QueryRow(
		`SELECT policy FROM contact_policies WHERE contact_id = ?`, contactID,
	).Scan(&policy)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return domainAgent.ContactPolicy(policy), true, nil
}

// Set 配置联系人策略
func (r *ContactPolicyRepositoryImpl) Set(contactID string, policy domainAgent.ContactPolicy) error {
	_, err := r.db.Exec(
		`INSERT OR REPLACE INTO contact_policies (contact_id, policy, updated_at) VALUES (?, ?, ?)`,
		contactID, string(policy), time.Now().Unix(),
	)
	return err
}

// List 列出全部策略
func (r *ContactPolicyRepositoryImpl) List() (map[string]domainAgent.ContactPolicy, error) {
	rows, err := r.db.Query(`SELECT contact_id, policy FROM contact_policies`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	policies := make(map[string]domainAgent.ContactPolicy)
	for rows.Next() {
		var id, policy string
		if err := rows.Scan(&id, &policy); err != nil {
			return nil, err
		}
		policies[id] = domainAgent.ContactPolicy(policy)
	}
	return policies, rows.Err()
}
