package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/scriptflow/scriptflow/pkg/models"
	"github.com/scriptflow/scriptflow/pkg/protocol"
)

// MockDocumentAnalyzer is a mock implementation of protocol.DocumentAnalyzer.
type MockDocumentAnalyzer struct {
	mock.Mock
}

func (m *MockDocumentAnalyzer) AnalyzeDocument(ctx context.Context, input protocol.AnalyzeInput) (*models.Blueprint, error) {
	args := m.Called(ctx, input)

	blueprint, _ := args.Get(0).(*models.Blueprint)

	return blueprint, args.Error(1)
}

// MockCodeGenerator is a mock implementation of protocol.CodeGenerator.
type MockCodeGenerator struct {
	mock.Mock
}

func (m *MockCodeGenerator) GenerateCode(ctx context.Context, input protocol.GenerateInput) (*models.GeneratedCode, error) {
	args := m.Called(ctx, input)

	code, _ := args.Get(0).(*models.GeneratedCode)

	return code, args.Error(1)
}

// MockTestRunner is a mock implementation of protocol.TestRunner.
type MockTestRunner struct {
	mock.Mock
}

func (m *MockTestRunner) RunTests(ctx context.Context, input protocol.TestInput) (*models.TestResult, error) {
	args := m.Called(ctx, input)

	result, _ := args.Get(0).(*models.TestResult)

	return result, args.Error(1)
}

// MockReportGenerator is a mock implementation of protocol.ReportGenerator.
type MockReportGenerator struct {
	mock.Mock
}

func (m *MockReportGenerator) GenerateReport(ctx context.Context, state *models.WorkflowState) (*models.FinalReport, error) {
	args := m.Called(ctx, state)

	report, _ := args.Get(0).(*models.FinalReport)

	return report, args.Error(1)
}
