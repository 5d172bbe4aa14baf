package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Workflow templates: the step tree is a document, stored as JSONB.
			CREATE TABLE workflow_templates (
				name VARCHAR(255) PRIMARY KEY,
				description TEXT NOT NULL DEFAULT '',
				version INTEGER NOT NULL DEFAULT 1,
				active BOOLEAN NOT NULL DEFAULT true,
				steps JSONB NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_workflow_templates_active ON workflow_templates(active);

			-- Execution records: step results are append-only and read back
			-- whole, so they live alongside the record as JSONB.
			CREATE TABLE workflow_executions (
				id UUID PRIMARY KEY,
				request_id VARCHAR(255) NOT NULL,
				workflow_type VARCHAR(255) NOT NULL,
				status VARCHAR(50) NOT NULL CHECK (status IN ('running', 'completed', 'failed', 'error')),
				error_message TEXT NOT NULL DEFAULT '',
				step_results JSONB NOT NULL DEFAULT '[]',
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				finished_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_workflow_executions_request_id ON workflow_executions(request_id);
			CREATE INDEX idx_workflow_executions_status ON workflow_executions(status);
			CREATE INDEX idx_workflow_executions_started_at ON workflow_executions(started_at);
		`,
	}
}
